package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"main/model"
	"main/services"
	"main/utils"
)

// SessionRepo owns the user_sessions table, with an optional Redis
// read-through cache keyed by token. The cache is nil-safe; a nil
// cache simply sends every lookup to Postgres.
type SessionRepo struct {
	DB    *sql.DB
	Cache *services.SessionCache
}

func NewSessionRepo(db *sql.DB, cache *services.SessionCache) *SessionRepo {
	return &SessionRepo{DB: db, Cache: cache}
}

func (r *SessionRepo) Create(ctx context.Context, session *model.Session) error {
	timer := utils.TrackDBOperation("insert", "user_sessions")
	defer timer.ObserveDuration()

	if session == nil {
		utils.TrackError("database", "nil_session")
		return fmt.Errorf("session cannot be nil")
	}
	if session.SessionID == "" || session.UserID == "" || session.Token == "" {
		utils.TrackError("database", "invalid_session_data")
		return fmt.Errorf("invalid session data: missing required fields")
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO user_sessions (session_id, user_id, token, created_at, expires_at, last_activity, ip_address, user_agent, device_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		session.SessionID, session.UserID, session.Token, session.CreatedAt,
		session.ExpiresAt, session.LastActivity, session.IPAddress, session.UserAgent, session.DeviceInfo,
	)
	if err != nil {
		utils.TrackError("database", "session_creation_failed")
		return fmt.Errorf("failed to create session: %w", err)
	}

	if err := r.Cache.Set(ctx, session); err != nil {
		utils.TrackError("cache", "session_cache_set_failed")
		log.Printf("Warning: failed to cache session: %v", err)
	}
	return nil
}

// GetByToken returns the session bound to token if its absolute expiry
// has not passed, or (nil, nil). Idle-timeout is the caller's check;
// only the hard expiry is filtered here.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	timer := utils.TrackDBOperation("find", "user_sessions")
	defer timer.ObserveDuration()

	if token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	if session, err := r.Cache.Get(ctx, token); err == nil && session != nil {
		utils.TrackCacheOperation("session", true)
		return session, nil
	} else if err != nil {
		utils.TrackError("cache", "session_cache_get_failed")
		log.Printf("Warning: session cache lookup failed: %v", err)
	}
	utils.TrackCacheOperation("session", false)

	var s model.Session
	err := r.DB.QueryRowContext(ctx, `
		SELECT session_id, user_id, token, created_at, expires_at, last_activity, ip_address, user_agent, device_info
		FROM user_sessions
		WHERE token = $1 AND expires_at > NOW()`,
		token,
	).Scan(&s.SessionID, &s.UserID, &s.Token, &s.CreatedAt, &s.ExpiresAt,
		&s.LastActivity, &s.IPAddress, &s.UserAgent, &s.DeviceInfo)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		utils.TrackError("database", "session_fetch_failed")
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	if err := r.Cache.Set(ctx, &s); err != nil {
		log.Printf("Warning: failed to cache session: %v", err)
	}
	return &s, nil
}

// Touch slides the idle window forward. Concurrent touches of the same
// session may race; last write wins, which is harmless because the
// writes are chronologically close.
func (r *SessionRepo) Touch(ctx context.Context, session *model.Session) error {
	timer := utils.TrackDBOperation("update", "user_sessions")
	defer timer.ObserveDuration()

	now := time.Now()
	_, err := r.DB.ExecContext(ctx,
		`UPDATE user_sessions SET last_activity = $2 WHERE session_id = $1`,
		session.SessionID, now,
	)
	if err != nil {
		utils.TrackError("database", "session_touch_failed")
		return fmt.Errorf("failed to update session activity: %w", err)
	}

	session.LastActivity = now
	if err := r.Cache.Set(ctx, session); err != nil {
		log.Printf("Warning: failed to refresh cached session: %v", err)
	}
	return nil
}

// ExpireNow invalidates a session by moving its expiry to the current
// instant and evicting it from the cache.
func (r *SessionRepo) ExpireNow(ctx context.Context, session *model.Session) error {
	timer := utils.TrackDBOperation("update", "user_sessions")
	defer timer.ObserveDuration()

	result, err := r.DB.ExecContext(ctx,
		`UPDATE user_sessions SET expires_at = NOW() WHERE session_id = $1`,
		session.SessionID,
	)
	if err != nil {
		utils.TrackError("database", "session_expire_failed")
		return fmt.Errorf("failed to expire session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("session not found")
	}

	if err := r.Cache.Delete(ctx, session.Token); err != nil {
		utils.TrackError("cache", "session_cache_delete_failed")
		log.Printf("Warning: failed to evict cached session: %v", err)
	}
	return nil
}

// ExpireAllForUser ends every live session a user holds. Used when an
// account is locked or credentials change.
func (r *SessionRepo) ExpireAllForUser(ctx context.Context, userID string) error {
	timer := utils.TrackDBOperation("update", "user_sessions")
	defer timer.ObserveDuration()

	rows, err := r.DB.QueryContext(ctx,
		`UPDATE user_sessions SET expires_at = NOW()
		 WHERE user_id = $1 AND expires_at > NOW()
		 RETURNING token`,
		userID,
	)
	if err != nil {
		utils.TrackError("database", "session_expire_all_failed")
		return fmt.Errorf("failed to expire user sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return fmt.Errorf("failed to scan expired session: %w", err)
		}
		if err := r.Cache.Delete(ctx, token); err != nil {
			log.Printf("Warning: failed to evict cached session: %v", err)
		}
	}
	return rows.Err()
}
