package handler

import (
	"errors"
	"net/http"
	"strings"

	"main/dto"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	Auth *usecase.AuthService
}

func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// Login runs the login pipeline and translates its error kinds into
// HTTP statuses. Credential failures share a 401 with a generic
// message regardless of whether the identifier exists.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackError("auth", "invalid_request")
		utils.BadRequest(c, "Invalid request")
		return
	}

	resp, err := h.Auth.Login(c.Request.Context(), req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			utils.Unauthorized(c, "Invalid credentials")
		case errors.Is(err, usecase.ErrAccountLocked):
			utils.Unauthorized(c, "Account is locked. Please contact support.")
		case errors.Is(err, usecase.ErrMFARequired):
			utils.Unauthorized(c, "MFA token required")
		case errors.Is(err, usecase.ErrInvalidMFA):
			utils.Unauthorized(c, "Invalid MFA token")
		default:
			utils.TrackError("auth", "login_failed")
			utils.InternalError(c, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout invalidates the presented session. 400 when no token is
// presented; otherwise 200, even for tokens that no longer resolve.
func (h *AuthHandler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		utils.BadRequest(c, "No session token provided")
		return
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	if err := h.Auth.Logout(c.Request.Context(), token); err != nil {
		utils.TrackError("auth", "logout_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
