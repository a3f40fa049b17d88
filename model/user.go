package model

import "time"

type User struct {
	UserID              string    `json:"user_id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"`
	FailedLoginAttempts int       `json:"-"`
	AccountLocked       bool      `json:"-"`
	MFASecret           string    `json:"-"`
	PasswordLastChanged time.Time `json:"password_last_changed"`
	CreatedAt           time.Time `json:"created_at"`

	// Profile fields, editable through the users endpoint.
	FirstName             string `json:"first_name,omitempty"`
	LastName              string `json:"last_name,omitempty"`
	DisplayName           string `json:"display_name,omitempty"`
	DateOfBirth           string `json:"date_of_birth,omitempty"`
	Gender                string `json:"gender,omitempty"`
	PhoneNumber           string `json:"phone_number,omitempty"`
	EmergencyContactName  string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string `json:"emergency_contact_phone,omitempty"`
	Address               string `json:"address,omitempty"`
	City                  string `json:"city,omitempty"`
	State                 string `json:"state,omitempty"`
	Country               string `json:"country,omitempty"`
	PostalCode            string `json:"postal_code,omitempty"`
}

// Sanitized strips credential material before the user is serialized
// into a response body.
func (u *User) Sanitized() *User {
	clean := *u
	clean.PasswordHash = ""
	clean.MFASecret = ""
	return &clean
}

// AuthUser is the resolved identity the session middleware attaches to
// the request context. Handlers and authorization middleware read it
// back through middleware.CurrentUser.
type AuthUser struct {
	UserID string
}
