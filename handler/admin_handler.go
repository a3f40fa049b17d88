package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"main/middleware"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type AdminUserStore interface {
	Unlock(ctx context.Context, userID string) error
}

type AdminRoleStore interface {
	AssignRole(ctx context.Context, userID, roleName string) error
	RevokeRole(ctx context.Context, userID, roleName string) error
}

type AdminSessionStore interface {
	ExpireAllForUser(ctx context.Context, userID string) error
}

type AdminHandler struct {
	Users    AdminUserStore
	Roles    AdminRoleStore
	Sessions AdminSessionStore
	RoleAuth *middleware.RoleAuth
}

func NewAdminHandler(users AdminUserStore, roles AdminRoleStore, sessions AdminSessionStore, ra *middleware.RoleAuth) *AdminHandler {
	return &AdminHandler{Users: users, Roles: roles, Sessions: sessions, RoleAuth: ra}
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

// Unlock clears the lockout state and failed-attempt counter so the
// user can log in again.
func (h *AdminHandler) Unlock(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		utils.BadRequest(c, "Missing user ID")
		return
	}

	if err := h.Users.Unlock(c.Request.Context(), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.NotFound(c, "User not found")
			return
		}
		utils.TrackError("admin", "unlock_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	utils.Success(c, gin.H{"message": "Account unlocked"})
}

// GrantRole adds a role. The permissions cache for the target user is
// invalidated so the grant is visible within the request that follows.
func (h *AdminHandler) GrantRole(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		utils.BadRequest(c, "Missing user ID")
		return
	}

	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	if err := h.Roles.AssignRole(c.Request.Context(), userID, req.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.NotFound(c, "Role not found")
			return
		}
		utils.TrackError("admin", "grant_role_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	if h.RoleAuth != nil {
		h.RoleAuth.ClearPermissionsCache(userID)
	}

	utils.Success(c, gin.H{"message": "Role granted"})
}

// RevokeRole removes a role and forces the target's sessions out so
// the narrower permission set takes effect immediately.
func (h *AdminHandler) RevokeRole(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		utils.BadRequest(c, "Missing user ID")
		return
	}

	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	if err := h.Roles.RevokeRole(c.Request.Context(), userID, req.Role); err != nil {
		utils.TrackError("admin", "revoke_role_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	if h.RoleAuth != nil {
		h.RoleAuth.ClearPermissionsCache(userID)
	}
	if h.Sessions != nil {
		if err := h.Sessions.ExpireAllForUser(c.Request.Context(), userID); err != nil {
			log.Printf("Warning: failed to expire sessions for %s: %v", userID, err)
		}
	}

	utils.Success(c, gin.H{"message": "Role revoked"})
}
