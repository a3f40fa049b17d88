package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"main/config"
	"main/dto"
	"main/model"
	"main/utils"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the credential store the login pipeline reads and
// mutates. FindByIdentifier returns (nil, nil) when no user matches.
type UserStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	// RecordFailedLogin increments the failed-attempt counter and,
	// in the same atomic statement, sets account_locked once the
	// counter reaches threshold. It returns the new counter value
	// and whether the account is now locked.
	RecordFailedLogin(ctx context.Context, userID string, threshold int) (int, bool, error)
	ResetFailedLogins(ctx context.Context, userID string) error
}

type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	GetByToken(ctx context.Context, token string) (*model.Session, error)
	ExpireNow(ctx context.Context, session *model.Session) error
}

type LoginHistoryStore interface {
	RecordLogin(ctx context.Context, rec *model.LoginHistoryRecord) error
	CloseLatest(ctx context.Context, userID, logoutType string) error
}

// AuthService implements the login pipeline: credential check, lockout
// policy, MFA, session issue and login-history bookkeeping.
type AuthService struct {
	Users    UserStore
	Sessions SessionStore
	History  LoginHistoryStore
	Cfg      config.AuthConfig

	// Now is swappable for clock-sensitive tests.
	Now func() time.Time
}

func NewAuthService(users UserStore, sessions SessionStore, history LoginHistoryStore, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		Users:    users,
		Sessions: sessions,
		History:  history,
		Cfg:      cfg,
		Now:      time.Now,
	}
}

// Login validates credentials and, on success, issues a session and
// appends a login-history record. Failures come back as one of the
// sentinel error kinds in errors.go.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest, ip, userAgent string) (*dto.LoginResponse, error) {
	user, err := s.Users.FindByIdentifier(ctx, req.Identifier)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil {
		utils.TrackAuthAttempt("failure", "unknown_identifier")
		return nil, ErrInvalidCredentials
	}

	if user.AccountLocked {
		utils.TrackAuthAttempt("failure", "account_locked")
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, fmt.Errorf("password comparison failed: %w", err)
		}

		attempts, locked, err := s.Users.RecordFailedLogin(ctx, user.UserID, s.Cfg.LockoutThreshold)
		if err != nil {
			return nil, fmt.Errorf("failed to record login failure: %w", err)
		}
		if locked {
			utils.TrackAuthAttempt("failure", "lockout_tripped")
			log.Printf("Account %s locked after %d failed login attempts", user.UserID, attempts)
		} else {
			utils.TrackAuthAttempt("failure", "invalid_password")
		}
		// The response for a wrong password is identical to an
		// unknown identifier, even on the attempt that trips the
		// lockout.
		return nil, ErrInvalidCredentials
	}

	if user.MFASecret != "" {
		if req.MFAToken == "" {
			utils.TrackAuthAttempt("failure", "mfa_missing")
			return nil, ErrMFARequired
		}
		if !totp.Validate(req.MFAToken, user.MFASecret) {
			utils.TrackAuthAttempt("failure", "mfa_invalid")
			return nil, ErrInvalidMFA
		}
	}

	if err := s.Users.ResetFailedLogins(ctx, user.UserID); err != nil {
		return nil, fmt.Errorf("failed to reset login counter: %w", err)
	}

	token, err := utils.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.Now()
	session := &model.Session{
		SessionID:    utils.GenerateSessionID(),
		UserID:       user.UserID,
		Token:        token,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.Cfg.AbsoluteTTL),
		LastActivity: now,
		IPAddress:    ip,
		UserAgent:    userAgent,
		DeviceInfo:   utils.DescribeDevice(userAgent),
	}
	if err := s.Sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Login history is bookkeeping. A failed append must not undo an
	// otherwise successful login.
	if err := s.History.RecordLogin(ctx, &model.LoginHistoryRecord{
		UserID:    user.UserID,
		LoginTime: now,
		IPAddress: ip,
		UserAgent: userAgent,
	}); err != nil {
		utils.TrackError("auth", "login_history_append_failed")
		log.Printf("Warning: failed to record login history for user %s: %v", user.UserID, err)
	}

	utils.TrackAuthAttempt("success", "login")

	return &dto.LoginResponse{
		User: user.Sanitized(),
		Session: dto.SessionResponse{
			Token:     token,
			ExpiresAt: session.ExpiresAt,
		},
		PasswordExpired: now.Sub(user.PasswordLastChanged) > s.Cfg.PasswordMaxAge,
	}, nil
}

// Logout terminates the session bound to token by moving its expiry to
// now and closes the latest open login-history row. Unknown tokens are
// a no-op: logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	session, err := s.Sessions.GetByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("session lookup failed: %w", err)
	}
	if session == nil {
		return nil
	}

	if err := s.Sessions.ExpireNow(ctx, session); err != nil {
		return fmt.Errorf("failed to expire session: %w", err)
	}

	if err := s.History.CloseLatest(ctx, session.UserID, model.LogoutManual); err != nil {
		utils.TrackError("auth", "login_history_close_failed")
		log.Printf("Warning: failed to close login history for user %s: %v", session.UserID, err)
	}

	return nil
}
