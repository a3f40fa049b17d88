package handler

import (
	"context"
	"database/sql"
	"errors"

	"main/dto"
	"main/model"
	"main/repository"
	"main/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type UserProfileStore interface {
	FindByID(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	ChangePassword(ctx context.Context, userID, passwordHash string) error
}

type UserHandler struct {
	Users    UserProfileStore
	Sessions AdminSessionStore
}

func NewUserHandler(users UserProfileStore, sessions AdminSessionStore) *UserHandler {
	return &UserHandler{Users: users, Sessions: sessions}
}

// Get returns a user's profile with credentials stripped.
func (h *UserHandler) Get(c *gin.Context) {
	userID := c.Param("user_id")

	user, err := h.Users.FindByID(c.Request.Context(), userID)
	if err != nil {
		utils.TrackError("users", "lookup_failed")
		utils.InternalError(c, "Internal server error")
		return
	}
	if user == nil {
		utils.NotFound(c, "User not found")
		return
	}

	utils.Success(c, gin.H{"user": user.Sanitized()})
}

// Update applies a partial profile edit. A password change re-hashes
// the credential, restarts the password-age clock, and ends every
// session the user holds so stale tokens cannot ride the old password.
func (h *UserHandler) Update(c *gin.Context) {
	userID := c.Param("user_id")

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}
	if req.Empty() {
		utils.BadRequest(c, "No fields to update")
		return
	}

	user, err := h.Users.FindByID(c.Request.Context(), userID)
	if err != nil {
		utils.TrackError("users", "lookup_failed")
		utils.InternalError(c, "Internal server error")
		return
	}
	if user == nil {
		utils.NotFound(c, "User not found")
		return
	}

	if req.Password != nil {
		if err := utils.ValidatePassword(*req.Password); err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.TrackError("users", "hash_failed")
			utils.InternalError(c, "Internal server error")
			return
		}
		if err := h.Users.ChangePassword(c.Request.Context(), userID, string(hash)); err != nil {
			utils.TrackError("users", "password_change_failed")
			utils.InternalError(c, "Internal server error")
			return
		}
		if err := h.Sessions.ExpireAllForUser(c.Request.Context(), userID); err != nil {
			utils.TrackError("users", "session_invalidation_failed")
		}
	}

	applyProfileUpdate(user, &req)

	if err := h.Users.UpdateProfile(c.Request.Context(), user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameTaken):
			utils.Conflict(c, "Username already taken")
		case errors.Is(err, repository.ErrEmailTaken):
			utils.Conflict(c, "Email already registered")
		case errors.Is(err, sql.ErrNoRows):
			utils.NotFound(c, "User not found")
		default:
			utils.TrackError("users", "profile_update_failed")
			utils.InternalError(c, "Internal server error")
		}
		return
	}

	utils.Success(c, gin.H{"user": user.Sanitized()})
}

func applyProfileUpdate(user *model.User, req *dto.UpdateUserRequest) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&user.Username, req.Username)
	set(&user.Email, req.Email)
	set(&user.FirstName, req.FirstName)
	set(&user.LastName, req.LastName)
	set(&user.DisplayName, req.DisplayName)
	set(&user.DateOfBirth, req.DateOfBirth)
	set(&user.Gender, req.Gender)
	set(&user.PhoneNumber, req.PhoneNumber)
	set(&user.EmergencyContactName, req.EmergencyContactName)
	set(&user.EmergencyContactPhone, req.EmergencyContactPhone)
	set(&user.Address, req.Address)
	set(&user.City, req.City)
	set(&user.State, req.State)
	set(&user.Country, req.Country)
	set(&user.PostalCode, req.PostalCode)
}
