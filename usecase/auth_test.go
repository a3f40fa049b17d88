package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"main/config"
	"main/dto"
	"main/model"

	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	user *model.User

	threshold  int
	failCalls  int
	resetCalls int
	lookupErr  error
	recordErr  error
}

func (f *fakeUserStore) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if f.user == nil {
		return nil, nil
	}
	if f.user.Username != identifier && f.user.Email != identifier {
		return nil, nil
	}
	u := *f.user
	return &u, nil
}

func (f *fakeUserStore) RecordFailedLogin(ctx context.Context, userID string, threshold int) (int, bool, error) {
	if f.recordErr != nil {
		return 0, false, f.recordErr
	}
	f.failCalls++
	f.threshold = threshold
	f.user.FailedLoginAttempts++
	if f.user.FailedLoginAttempts >= threshold {
		f.user.AccountLocked = true
	}
	return f.user.FailedLoginAttempts, f.user.AccountLocked, nil
}

func (f *fakeUserStore) ResetFailedLogins(ctx context.Context, userID string) error {
	f.resetCalls++
	f.user.FailedLoginAttempts = 0
	return nil
}

type fakeSessionStore struct {
	sessions  map[string]*model.Session
	createErr error
	expired   []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionStore) Create(ctx context.Context, session *model.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.sessions[session.Token] = session
	return nil
}

func (f *fakeSessionStore) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (f *fakeSessionStore) ExpireNow(ctx context.Context, session *model.Session) error {
	f.expired = append(f.expired, session.SessionID)
	delete(f.sessions, session.Token)
	return nil
}

type fakeHistoryStore struct {
	records   []*model.LoginHistoryRecord
	closed    []string
	recordErr error
}

func (f *fakeHistoryStore) RecordLogin(ctx context.Context, rec *model.LoginHistoryRecord) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeHistoryStore) CloseLatest(ctx context.Context, userID, logoutType string) error {
	f.closed = append(f.closed, logoutType)
	return nil
}

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		IdleTimeout:      15 * time.Minute,
		AbsoluteTTL:      15 * time.Minute,
		LockoutThreshold: 5,
		PasswordMaxAge:   90 * 24 * time.Hour,
	}
}

func testUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	return &model.User{
		UserID:              "user-1",
		Username:            "janedoe",
		Email:               "jane@example.com",
		PasswordHash:        string(hash),
		PasswordLastChanged: time.Now(),
		CreatedAt:           time.Now(),
	}
}

func newTestService(users *fakeUserStore, sessions *fakeSessionStore, history *fakeHistoryStore) *AuthService {
	return NewAuthService(users, sessions, history, testConfig())
}

func TestLoginSuccess(t *testing.T) {
	users := &fakeUserStore{user: testUser(t, "correct-horse-battery")}
	sessions := newFakeSessionStore()
	history := &fakeHistoryStore{}
	svc := newTestService(users, sessions, history)

	for _, identifier := range []string{"janedoe", "jane@example.com"} {
		t.Run(identifier, func(t *testing.T) {
			resp, err := svc.Login(context.Background(), dto.LoginRequest{
				Identifier: identifier,
				Password:   "correct-horse-battery",
			}, "203.0.113.9", "Mozilla/5.0")
			if err != nil {
				t.Fatalf("Login failed: %v", err)
			}
			if resp.Session.Token == "" {
				t.Error("Expected a session token")
			}
			if len(resp.Session.Token) != 64 {
				t.Errorf("Expected 64 hex chars of token, got %d", len(resp.Session.Token))
			}
			if resp.PasswordExpired {
				t.Error("Password should not be flagged expired")
			}
			if resp.User.PasswordHash != "" {
				t.Error("Password hash leaked in response")
			}

			session, ok := sessions.sessions[resp.Session.Token]
			if !ok {
				t.Fatal("Session was not persisted")
			}
			if got := session.ExpiresAt.Sub(session.CreatedAt); got != 15*time.Minute {
				t.Errorf("Expected 15m absolute TTL, got %v", got)
			}
		})
	}

	if len(history.records) != 2 {
		t.Errorf("Expected 2 history records, got %d", len(history.records))
	}
	if users.resetCalls != 2 {
		t.Errorf("Expected failed-login reset on each success, got %d", users.resetCalls)
	}
}

func TestLoginUnknownIdentifier(t *testing.T) {
	users := &fakeUserStore{user: testUser(t, "correct-horse-battery")}
	svc := newTestService(users, newFakeSessionStore(), &fakeHistoryStore{})

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Identifier: "nobody",
		Password:   "whatever-password",
	}, "", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	users := &fakeUserStore{user: testUser(t, "correct-horse-battery")}
	svc := newTestService(users, newFakeSessionStore(), &fakeHistoryStore{})

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Identifier: "janedoe",
		Password:   "wrong-password-here",
	}, "", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
	if users.failCalls != 1 {
		t.Errorf("Expected 1 failed-login record, got %d", users.failCalls)
	}
	if users.threshold != 5 {
		t.Errorf("Expected threshold 5 passed through, got %d", users.threshold)
	}
}

func TestLoginLockoutAtThreshold(t *testing.T) {
	users := &fakeUserStore{user: testUser(t, "correct-horse-battery")}
	svc := newTestService(users, newFakeSessionStore(), &fakeHistoryStore{})

	// Five consecutive failures. Every one of them, including the one
	// that trips the lockout, reads as invalid credentials.
	for i := 0; i < 5; i++ {
		_, err := svc.Login(context.Background(), dto.LoginRequest{
			Identifier: "janedoe",
			Password:   "wrong-password-here",
		}, "", "")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	if !users.user.AccountLocked {
		t.Fatal("Account should be locked after 5 failures")
	}

	// Once locked, even the correct password is refused.
	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Identifier: "janedoe",
		Password:   "correct-horse-battery",
	}, "", "")
	if !errors.Is(err, ErrAccountLocked) {
		t.Errorf("Expected ErrAccountLocked, got %v", err)
	}
}

func TestLoginMFA(t *testing.T) {
	user := testUser(t, "correct-horse-battery")
	user.MFASecret = "JBSWY3DPEHPK3PXP"
	users := &fakeUserStore{user: user}
	svc := newTestService(users, newFakeSessionStore(), &fakeHistoryStore{})

	t.Run("missing token", func(t *testing.T) {
		_, err := svc.Login(context.Background(), dto.LoginRequest{
			Identifier: "janedoe",
			Password:   "correct-horse-battery",
		}, "", "")
		if !errors.Is(err, ErrMFARequired) {
			t.Errorf("Expected ErrMFARequired, got %v", err)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := svc.Login(context.Background(), dto.LoginRequest{
			Identifier: "janedoe",
			Password:   "correct-horse-battery",
			MFAToken:   "000000",
		}, "", "")
		if !errors.Is(err, ErrInvalidMFA) {
			t.Errorf("Expected ErrInvalidMFA, got %v", err)
		}
	})

	t.Run("wrong password checked before MFA", func(t *testing.T) {
		_, err := svc.Login(context.Background(), dto.LoginRequest{
			Identifier: "janedoe",
			Password:   "wrong-password-here",
		}, "", "")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestLoginPasswordExpiredAdvisory(t *testing.T) {
	user := testUser(t, "correct-horse-battery")
	user.PasswordLastChanged = time.Now().Add(-91 * 24 * time.Hour)
	users := &fakeUserStore{user: user}
	svc := newTestService(users, newFakeSessionStore(), &fakeHistoryStore{})

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Identifier: "janedoe",
		Password:   "correct-horse-battery",
	}, "", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !resp.PasswordExpired {
		t.Error("Expected passwordExpired advisory on a 91-day-old password")
	}
}

func TestLoginHistoryFailureIsNotFatal(t *testing.T) {
	users := &fakeUserStore{user: testUser(t, "correct-horse-battery")}
	history := &fakeHistoryStore{recordErr: errors.New("history table is on fire")}
	svc := newTestService(users, newFakeSessionStore(), history)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Identifier: "janedoe",
		Password:   "correct-horse-battery",
	}, "", "")
	if err != nil {
		t.Fatalf("Login should succeed despite history failure: %v", err)
	}
	if resp.Session.Token == "" {
		t.Error("Expected a session token")
	}
}

func TestLogout(t *testing.T) {
	users := &fakeUserStore{user: testUser(t, "correct-horse-battery")}
	sessions := newFakeSessionStore()
	history := &fakeHistoryStore{}
	svc := newTestService(users, sessions, history)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Identifier: "janedoe",
		Password:   "correct-horse-battery",
	}, "", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.Logout(context.Background(), resp.Session.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if len(sessions.expired) != 1 {
		t.Errorf("Expected 1 expired session, got %d", len(sessions.expired))
	}
	if len(history.closed) != 1 || history.closed[0] != model.LogoutManual {
		t.Errorf("Expected a manual logout close, got %v", history.closed)
	}

	// Second logout with the same token is a no-op.
	if err := svc.Logout(context.Background(), resp.Session.Token); err != nil {
		t.Fatalf("Repeated logout should be idempotent: %v", err)
	}
	if len(sessions.expired) != 1 {
		t.Errorf("Expected no further expirations, got %d", len(sessions.expired))
	}
}
