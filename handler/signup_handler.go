package handler

import (
	"context"
	"log"
	"time"

	"main/dto"
	"main/middleware"
	"main/model"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

type SignupUserStore interface {
	Create(ctx context.Context, user *model.User) error
	UsernameOrEmailTaken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
}

type RoleAssigner interface {
	AssignRole(ctx context.Context, userID, roleName string) error
}

type SignupHandler struct {
	Users    SignupUserStore
	Roles    RoleAssigner
	RoleAuth *middleware.RoleAuth
}

func NewSignupHandler(users SignupUserStore, roles RoleAssigner, ra *middleware.RoleAuth) *SignupHandler {
	return &SignupHandler{Users: users, Roles: roles, RoleAuth: ra}
}

// Signup registers a new account with the default role. The TOTP
// secret is returned exactly once; it is never exposed again after
// this response.
func (h *SignupHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	usernameTaken, emailTaken, err := h.Users.UsernameOrEmailTaken(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		utils.TrackError("auth", "signup_failed")
		utils.InternalError(c, "Internal server error")
		return
	}
	if usernameTaken {
		utils.Conflict(c, "Username already in use")
		return
	}
	if emailTaken {
		utils.Conflict(c, "Email already in use")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.TrackError("auth", "hash_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "medivue",
		AccountName: req.Email,
	})
	if err != nil {
		utils.TrackError("auth", "mfa_generate_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	user := &model.User{
		UserID:              utils.GenerateUserID(),
		Username:            req.Username,
		Email:               req.Email,
		PasswordHash:        string(hash),
		MFASecret:           key.Secret(),
		PasswordLastChanged: time.Now(),
		CreatedAt:           time.Now(),
	}
	if err := h.Users.Create(c.Request.Context(), user); err != nil {
		utils.TrackError("auth", "signup_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	if err := h.Roles.AssignRole(c.Request.Context(), user.UserID, "user"); err != nil {
		log.Printf("Warning: failed to assign default role to %s: %v", user.UserID, err)
	}
	if h.RoleAuth != nil {
		h.RoleAuth.ClearPermissionsCache(user.UserID)
	}

	utils.Created(c, dto.SignupResponse{
		User:      user.Sanitized(),
		MFASecret: key.Secret(),
	})
}
