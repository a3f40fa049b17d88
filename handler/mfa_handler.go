package handler

import (
	"context"

	"main/middleware"
	"main/model"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
)

type MFAUserStore interface {
	FindByID(ctx context.Context, userID string) (*model.User, error)
	SetMFASecret(ctx context.Context, userID, secret string) error
}

type MFAHandler struct {
	Users MFAUserStore
}

func NewMFAHandler(users MFAUserStore) *MFAHandler {
	return &MFAHandler{Users: users}
}

type mfaEnableRequest struct {
	Secret string `json:"secret" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

type mfaDisableRequest struct {
	Code string `json:"code" binding:"required"`
}

// Setup issues a fresh TOTP secret without persisting it. The secret
// only becomes active once Enable proves the caller can produce a
// valid code from it.
func (h *MFAHandler) Setup(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Invalid or expired session")
		return
	}

	account, err := h.Users.FindByID(c.Request.Context(), user.UserID)
	if err != nil {
		utils.TrackError("mfa", "lookup_failed")
		utils.InternalError(c, "Internal server error")
		return
	}
	if account == nil {
		utils.Unauthorized(c, "Invalid or expired session")
		return
	}
	if account.MFASecret != "" {
		utils.BadRequest(c, "MFA is already enabled")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "medivue",
		AccountName: account.Email,
	})
	if err != nil {
		utils.TrackError("mfa", "generate_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	utils.Success(c, gin.H{
		"secret":      key.Secret(),
		"otpauth_url": key.URL(),
	})
}

func (h *MFAHandler) Enable(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Invalid or expired session")
		return
	}

	var req mfaEnableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}
	if !totp.Validate(req.Code, req.Secret) {
		utils.Unauthorized(c, "Invalid MFA token")
		return
	}

	if err := h.Users.SetMFASecret(c.Request.Context(), user.UserID, req.Secret); err != nil {
		utils.TrackError("mfa", "enable_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	utils.Success(c, gin.H{"message": "MFA enabled"})
}

func (h *MFAHandler) Disable(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Invalid or expired session")
		return
	}

	var req mfaDisableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	account, err := h.Users.FindByID(c.Request.Context(), user.UserID)
	if err != nil {
		utils.TrackError("mfa", "lookup_failed")
		utils.InternalError(c, "Internal server error")
		return
	}
	if account == nil {
		utils.Unauthorized(c, "Invalid or expired session")
		return
	}
	if account.MFASecret == "" {
		utils.BadRequest(c, "MFA is not enabled")
		return
	}
	if !totp.Validate(req.Code, account.MFASecret) {
		utils.Unauthorized(c, "Invalid MFA token")
		return
	}

	if err := h.Users.SetMFASecret(c.Request.Context(), user.UserID, ""); err != nil {
		utils.TrackError("mfa", "disable_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	utils.Success(c, gin.H{"message": "MFA disabled"})
}
