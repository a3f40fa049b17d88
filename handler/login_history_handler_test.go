package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"main/model"

	"github.com/gin-gonic/gin"
)

type stubHistoryLister struct {
	records []*model.LoginHistoryRecord
	limit   int
}

func (s *stubHistoryLister) ListByUser(ctx context.Context, userID string, limit int) ([]*model.LoginHistoryRecord, error) {
	s.limit = limit
	var out []*model.LoginHistoryRecord
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func historyTestRouter(store *stubHistoryLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewLoginHistoryHandler(store)
	router := gin.New()
	router.GET("/api/auth/login-history/:user_id", h.List)
	return router
}

func TestLoginHistoryListReturnsBareArray(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	store := &stubHistoryLister{records: []*model.LoginHistoryRecord{
		{ID: 2, UserID: "patient-1", LoginTime: now, IPAddress: "203.0.113.9"},
		{ID: 1, UserID: "patient-1", LoginTime: now.Add(-time.Hour), LogoutType: model.LogoutManual},
		{ID: 3, UserID: "patient-2", LoginTime: now},
	}}
	router := historyTestRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/login-history/patient-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// The body is a bare array of records, no envelope.
	var records []model.LoginHistoryRecord
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("Body must decode as a record array: %v; body: %s", err, w.Body.String())
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records for patient-1, got %d", len(records))
	}
	if records[0].ID != 2 || records[0].IPAddress != "203.0.113.9" {
		t.Errorf("Unexpected first record: %+v", records[0])
	}
}

func TestLoginHistoryListEmpty(t *testing.T) {
	router := historyTestRouter(&stubHistoryLister{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/login-history/nobody", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "[]" {
		t.Errorf("Expected an empty array body, got %s", body)
	}
}

func TestLoginHistoryListInvalidLimit(t *testing.T) {
	router := historyTestRouter(&stubHistoryLister{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/login-history/patient-1?limit=zero", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad limit, got %d", w.Code)
	}
}
