package middleware

import (
	"context"
	"log"
	"strings"
	"time"

	"main/config"
	"main/model"
	"main/utils"

	"github.com/gin-gonic/gin"
)

const (
	contextUserKey    = "auth_user"
	contextSessionKey = "session"
)

// SessionStore is the slice of the session repository the middleware
// needs. GetByToken returns (nil, nil) for unknown or hard-expired
// tokens.
type SessionStore interface {
	GetByToken(ctx context.Context, token string) (*model.Session, error)
	Touch(ctx context.Context, session *model.Session) error
	ExpireNow(ctx context.Context, session *model.Session) error
}

// HistoryStore closes login-history rows when a session dies of
// inactivity.
type HistoryStore interface {
	CloseLatest(ctx context.Context, userID, logoutType string) error
}

// SessionMiddleware authenticates every request on a protected route:
// bearer token, absolute expiry, idle timeout, then a sliding
// last-activity refresh. Idle expiry is reported as "Session timeout",
// distinct from an invalid token, so clients can tell the user why
// they were signed out.
func SessionMiddleware(sessions SessionStore, history HistoryStore, cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.Unauthorized(c, "No session token provided")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		ctx := c.Request.Context()
		session, err := sessions.GetByToken(ctx, token)
		if err != nil {
			utils.TrackError("session", "lookup_failed")
			log.Printf("Session lookup error: %v", err)
			utils.InternalError(c, "Internal server error")
			c.Abort()
			return
		}
		if session == nil {
			utils.Unauthorized(c, "Invalid or expired session")
			c.Abort()
			return
		}

		if time.Since(session.LastActivity) > cfg.IdleTimeout {
			if err := sessions.ExpireNow(ctx, session); err != nil {
				utils.TrackError("session", "idle_expire_failed")
				log.Printf("Failed to expire idle session %s: %v", session.SessionID, err)
			}
			if err := history.CloseLatest(ctx, session.UserID, model.LogoutTimeout); err != nil {
				log.Printf("Warning: failed to close login history for user %s: %v", session.UserID, err)
			}
			utils.Unauthorized(c, "Session timeout")
			c.Abort()
			return
		}

		if err := sessions.Touch(ctx, session); err != nil {
			// A failed activity refresh only shortens the idle
			// window; the request itself proceeds.
			utils.TrackError("session", "touch_failed")
			log.Printf("Failed to refresh session activity: %v", err)
		}

		c.Set(contextUserKey, model.AuthUser{UserID: session.UserID})
		c.Set(contextSessionKey, session)
		c.Next()
	}
}

// CurrentUser returns the identity the session middleware resolved for
// this request. The second return is false on routes that never passed
// authentication.
func CurrentUser(c *gin.Context) (model.AuthUser, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return model.AuthUser{}, false
	}
	user, ok := v.(model.AuthUser)
	return user, ok
}

// CurrentSession returns the session the request authenticated with.
func CurrentSession(c *gin.Context) (*model.Session, bool) {
	v, ok := c.Get(contextSessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*model.Session)
	return session, ok
}
