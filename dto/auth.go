package dto

import (
	"time"

	"main/model"
)

// LoginRequest accepts either an email address or a username in
// Identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
	MFAToken   string `json:"mfaToken"`
}

type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LoginResponse struct {
	User            *model.User     `json:"user"`
	Session         SessionResponse `json:"session"`
	PasswordExpired bool            `json:"passwordExpired"`
}

type SignupRequest struct {
	Username string `json:"username" binding:"required,min=4,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,password"`
}

type SignupResponse struct {
	User      *model.User `json:"user"`
	MFASecret string      `json:"mfaSecret"`
}
