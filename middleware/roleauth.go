package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"

	"main/model"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// RoleStore resolves the user→role→permission graph and organization
// memberships.
type RoleStore interface {
	GetUserPermissions(ctx context.Context, userID string) ([]string, error)
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
	GetUserOrganizations(ctx context.Context, userID string) ([]model.Organization, error)
}

// RoleAuth builds authorization middleware on top of a role store and
// the process-local permissions cache.
type RoleAuth struct {
	Store RoleStore
	Cache *services.PermissionsCache
}

func NewRoleAuth(store RoleStore, cache *services.PermissionsCache) *RoleAuth {
	return &RoleAuth{Store: store, Cache: cache}
}

// GetUserPermissions is a read-through cache over the permission join.
// Concurrent misses for the same user may each run the query; it is
// idempotent and cheap, so misses are not deduplicated.
func (ra *RoleAuth) GetUserPermissions(ctx context.Context, userID string) ([]string, error) {
	if perms, ok := ra.Cache.Get(userID); ok {
		utils.TrackCacheOperation("permissions", true)
		return perms, nil
	}
	utils.TrackCacheOperation("permissions", false)

	perms, err := ra.Store.GetUserPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	ra.Cache.Set(userID, perms)
	return perms, nil
}

// ClearPermissionsCache invalidates one user's cached permissions.
// Must run after any role or permission assignment change.
func (ra *RoleAuth) ClearPermissionsCache(userID string) {
	ra.Cache.Clear(userID)
}

// ClearAllPermissions drops the whole cache.
func (ra *RoleAuth) ClearAllPermissions() {
	ra.Cache.ClearAll()
}

// RequirePermissions passes only when the caller holds ALL of the
// named permissions.
func (ra *RoleAuth) RequirePermissions(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			utils.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		perms, err := ra.GetUserPermissions(c.Request.Context(), user.UserID)
		if err != nil {
			utils.TrackError("authz", "permission_resolution_failed")
			log.Printf("Permission check error for user %s: %v", user.UserID, err)
			utils.InternalError(c, "Internal server error")
			c.Abort()
			return
		}

		held := make(map[string]bool, len(perms))
		for _, p := range perms {
			held[p] = true
		}
		for _, p := range required {
			if !held[p] {
				utils.Forbidden(c, "Insufficient permissions")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// RequireRoles passes when the caller holds ANY of the named roles.
func (ra *RoleAuth) RequireRoles(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			utils.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		roles, err := ra.Store.GetUserRoles(c.Request.Context(), user.UserID)
		if err != nil {
			utils.TrackError("authz", "role_resolution_failed")
			log.Printf("Role check error for user %s: %v", user.UserID, err)
			utils.InternalError(c, "Internal server error")
			c.Abort()
			return
		}

		held := make(map[string]bool, len(roles))
		for _, r := range roles {
			held[r] = true
		}
		for _, r := range required {
			if held[r] {
				c.Next()
				return
			}
		}
		utils.Forbidden(c, "Insufficient role permissions")
		c.Abort()
	}
}

// RequireSameOrganization passes when the caller and the target user
// (from the :user_id route param or a user_id body field) share at
// least one active organization membership.
func (ra *RoleAuth) RequireSameOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			utils.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		targetUserID := targetUserID(c)
		if targetUserID == "" {
			utils.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		callerOrgs, err := ra.Store.GetUserOrganizations(ctx, user.UserID)
		if err == nil {
			var targetOrgs []model.Organization
			targetOrgs, err = ra.Store.GetUserOrganizations(ctx, targetUserID)
			if err == nil {
				for _, caller := range callerOrgs {
					for _, target := range targetOrgs {
						if caller.OrgID == target.OrgID {
							c.Next()
							return
						}
					}
				}
				utils.Forbidden(c, "Access restricted to same organization")
				c.Abort()
				return
			}
		}

		utils.TrackError("authz", "organization_resolution_failed")
		log.Printf("Organization check error: %v", err)
		utils.InternalError(c, "Internal server error")
		c.Abort()
	}
}

// RequireSelfOrPermission passes when the caller is the target user,
// or holds the named permission and shares an organization with the
// target. Used for routes like login history where users see their own
// data and clinicians see their patients'.
func (ra *RoleAuth) RequireSelfOrPermission(perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			utils.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}
		target := c.Param("user_id")
		if target == user.UserID {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		perms, err := ra.GetUserPermissions(ctx, user.UserID)
		if err != nil {
			utils.TrackError("authz", "permission_resolution_failed")
			log.Printf("Permission check error for user %s: %v", user.UserID, err)
			utils.InternalError(c, "Internal server error")
			c.Abort()
			return
		}
		held := false
		for _, p := range perms {
			if p == perm {
				held = true
				break
			}
		}
		if !held {
			utils.Forbidden(c, "Insufficient permissions")
			c.Abort()
			return
		}

		callerOrgs, err := ra.Store.GetUserOrganizations(ctx, user.UserID)
		if err == nil {
			var targetOrgs []model.Organization
			targetOrgs, err = ra.Store.GetUserOrganizations(ctx, target)
			if err == nil {
				for _, caller := range callerOrgs {
					for _, t := range targetOrgs {
						if caller.OrgID == t.OrgID {
							c.Next()
							return
						}
					}
				}
				utils.Forbidden(c, "Access restricted to same organization")
				c.Abort()
				return
			}
		}
		utils.TrackError("authz", "organization_resolution_failed")
		log.Printf("Organization check error: %v", err)
		utils.InternalError(c, "Internal server error")
		c.Abort()
	}
}

// targetUserID extracts the user the request operates on: route param
// first, then a user_id field in a JSON body. The body is restored so
// handlers can still bind it.
func targetUserID(c *gin.Context) string {
	if id := c.Param("user_id"); id != "" {
		return id
	}

	if c.Request.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.UserID
}
