package dto

// UpdateUserRequest carries a partial profile update. Nil fields are
// left untouched; a present field overwrites, including with an empty
// string for the free-form profile fields.
type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=4,max=30"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password"`

	FirstName             *string `json:"first_name"`
	LastName              *string `json:"last_name"`
	DisplayName           *string `json:"display_name"`
	DateOfBirth           *string `json:"date_of_birth"`
	Gender                *string `json:"gender"`
	PhoneNumber           *string `json:"phone_number"`
	EmergencyContactName  *string `json:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone"`
	Address               *string `json:"address"`
	City                  *string `json:"city"`
	State                 *string `json:"state"`
	Country               *string `json:"country"`
	PostalCode            *string `json:"postal_code"`
}

// Empty reports whether the request carries nothing to update.
func (r *UpdateUserRequest) Empty() bool {
	return r.Username == nil && r.Email == nil && r.Password == nil &&
		r.FirstName == nil && r.LastName == nil && r.DisplayName == nil &&
		r.DateOfBirth == nil && r.Gender == nil && r.PhoneNumber == nil &&
		r.EmergencyContactName == nil && r.EmergencyContactPhone == nil &&
		r.Address == nil && r.City == nil && r.State == nil &&
		r.Country == nil && r.PostalCode == nil
}
