package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"main/model"
	"main/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type stubProfileStore struct {
	users map[string]*model.User

	changedPasswordHash string
	updateErr           error
	sessionsExpiredFor  []string
}

func (s *stubProfileStore) FindByID(ctx context.Context, userID string) (*model.User, error) {
	return s.users[userID], nil
}

func (s *stubProfileStore) UpdateProfile(ctx context.Context, user *model.User) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.users[user.UserID] = user
	return nil
}

func (s *stubProfileStore) ChangePassword(ctx context.Context, userID, passwordHash string) error {
	s.changedPasswordHash = passwordHash
	return nil
}

func (s *stubProfileStore) ExpireAllForUser(ctx context.Context, userID string) error {
	s.sessionsExpiredFor = append(s.sessionsExpiredFor, userID)
	return nil
}

func profileTestRouter(store *stubProfileStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(store, store)
	router := gin.New()
	router.GET("/api/users/:user_id", h.Get)
	router.PUT("/api/users/:user_id", h.Update)
	return router
}

func putProfile(router *gin.Engine, userID, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/users/"+userID, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestUserGetStripsCredentials(t *testing.T) {
	store := &stubProfileStore{users: map[string]*model.User{
		"patient-1": {
			UserID:       "patient-1",
			Username:     "caregiver",
			PasswordHash: "$2a$10$secret",
			MFASecret:    "JBSWY3DP",
			FirstName:    "Jo",
		},
	}}
	router := profileTestRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/patient-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if strings.Contains(body, "secret") || strings.Contains(body, "JBSWY3DP") {
		t.Errorf("Response leaked credential material: %s", body)
	}
	if !strings.Contains(body, `"first_name":"Jo"`) {
		t.Errorf("Expected profile fields in response, got %s", body)
	}
}

func TestUserGetUnknown(t *testing.T) {
	router := profileTestRouter(&stubProfileStore{users: map[string]*model.User{}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/ghost", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestUserUpdatePartial(t *testing.T) {
	store := &stubProfileStore{users: map[string]*model.User{
		"patient-1": {UserID: "patient-1", Username: "caregiver", FirstName: "Jo", City: "Lyon"},
	}}
	router := profileTestRouter(store)

	w := putProfile(router, "patient-1", `{"first_name":"Joan","phone_number":"+33 1 23 45"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := store.users["patient-1"]
	if updated.FirstName != "Joan" || updated.PhoneNumber != "+33 1 23 45" {
		t.Errorf("Fields not applied: %+v", updated)
	}
	if updated.City != "Lyon" || updated.Username != "caregiver" {
		t.Errorf("Untouched fields must survive a partial update: %+v", updated)
	}
	if len(store.sessionsExpiredFor) != 0 {
		t.Errorf("Profile-only update must not end sessions")
	}
}

func TestUserUpdateEmptyBody(t *testing.T) {
	store := &stubProfileStore{users: map[string]*model.User{
		"patient-1": {UserID: "patient-1"},
	}}
	router := profileTestRouter(store)

	w := putProfile(router, "patient-1", `{}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error != "No fields to update" {
		t.Errorf("Expected 'No fields to update', got %q", resp.Error)
	}
}

func TestUserUpdatePassword(t *testing.T) {
	store := &stubProfileStore{users: map[string]*model.User{
		"patient-1": {UserID: "patient-1", Username: "caregiver"},
	}}
	router := profileTestRouter(store)

	w := putProfile(router, "patient-1", `{"password":"Str0ng!Passphrase"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if store.changedPasswordHash == "" {
		t.Fatal("Expected the password hash to be rewritten")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(store.changedPasswordHash), []byte("Str0ng!Passphrase")); err != nil {
		t.Errorf("Stored hash does not match the new password: %v", err)
	}
	if len(store.sessionsExpiredFor) != 1 || store.sessionsExpiredFor[0] != "patient-1" {
		t.Errorf("Password change must end the user's sessions, got %v", store.sessionsExpiredFor)
	}
}

func TestUserUpdateWeakPassword(t *testing.T) {
	store := &stubProfileStore{users: map[string]*model.User{
		"patient-1": {UserID: "patient-1"},
	}}
	router := profileTestRouter(store)

	w := putProfile(router, "patient-1", `{"password":"short"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a weak password, got %d", w.Code)
	}
	if store.changedPasswordHash != "" {
		t.Error("Weak password must not be stored")
	}
}

func TestUserUpdateUsernameConflict(t *testing.T) {
	store := &stubProfileStore{
		users: map[string]*model.User{
			"patient-1": {UserID: "patient-1", Username: "caregiver"},
		},
		updateErr: repository.ErrUsernameTaken,
	}
	router := profileTestRouter(store)

	w := putProfile(router, "patient-1", `{"username":"othername"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Username already taken") {
		t.Errorf("Unexpected conflict body: %s", w.Body.String())
	}
}
