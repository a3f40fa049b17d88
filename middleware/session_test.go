package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"main/config"
	"main/model"

	"github.com/gin-gonic/gin"
)

type fakeSessionStore struct {
	sessions map[string]*model.Session
	touched  int
	expired  []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionStore) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (f *fakeSessionStore) Touch(ctx context.Context, session *model.Session) error {
	f.touched++
	session.LastActivity = time.Now()
	return nil
}

func (f *fakeSessionStore) ExpireNow(ctx context.Context, session *model.Session) error {
	f.expired = append(f.expired, session.SessionID)
	delete(f.sessions, session.Token)
	return nil
}

type fakeHistoryCloser struct {
	closed []string
}

func (f *fakeHistoryCloser) CloseLatest(ctx context.Context, userID, logoutType string) error {
	f.closed = append(f.closed, logoutType)
	return nil
}

func sessionTestRouter(sessions *fakeSessionStore, history *fakeHistoryCloser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.AuthConfig{IdleTimeout: 15 * time.Minute, AbsoluteTTL: 15 * time.Minute}

	router := gin.New()
	router.GET("/protected", SessionMiddleware(sessions, history, cfg), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"user_id": user.UserID})
	})
	return router
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return body.Error
}

func TestSessionMiddlewareNoToken(t *testing.T) {
	router := sessionTestRouter(newFakeSessionStore(), &fakeHistoryCloser{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
	if got := errorBody(t, w); got != "No session token provided" {
		t.Errorf("Unexpected error message: %q", got)
	}
}

func TestSessionMiddlewareUnknownToken(t *testing.T) {
	router := sessionTestRouter(newFakeSessionStore(), &fakeHistoryCloser{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer deadbeef")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
	if got := errorBody(t, w); got != "Invalid or expired session" {
		t.Errorf("Unexpected error message: %q", got)
	}
}

func TestSessionMiddlewareIdleTimeout(t *testing.T) {
	sessions := newFakeSessionStore()
	history := &fakeHistoryCloser{}
	sessions.sessions["stale-token"] = &model.Session{
		SessionID:    "sess-1",
		UserID:       "user-1",
		Token:        "stale-token",
		ExpiresAt:    time.Now().Add(10 * time.Minute),
		LastActivity: time.Now().Add(-16 * time.Minute),
	}
	router := sessionTestRouter(sessions, history)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
	if got := errorBody(t, w); got != "Session timeout" {
		t.Errorf("Idle expiry must be distinguishable, got %q", got)
	}
	if len(sessions.expired) != 1 {
		t.Errorf("Idle session should be expired in the store, got %v", sessions.expired)
	}
	if len(history.closed) != 1 || history.closed[0] != model.LogoutTimeout {
		t.Errorf("Expected a timeout logout close, got %v", history.closed)
	}
}

func TestSessionMiddlewareValidSession(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.sessions["good-token"] = &model.Session{
		SessionID:    "sess-1",
		UserID:       "user-1",
		Token:        "good-token",
		ExpiresAt:    time.Now().Add(10 * time.Minute),
		LastActivity: time.Now().Add(-1 * time.Minute),
	}
	router := sessionTestRouter(sessions, &fakeHistoryCloser{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.UserID != "user-1" {
		t.Errorf("Expected resolved user-1, got %q", body.UserID)
	}
	if sessions.touched != 1 {
		t.Errorf("Expected a sliding activity refresh, got %d touches", sessions.touched)
	}
}
