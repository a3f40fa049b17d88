package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"main/model"
	"main/services"

	"github.com/gin-gonic/gin"
)

type captureAuditStore struct {
	mu      sync.Mutex
	records []*model.AuditLogRecord
}

func (s *captureAuditStore) Insert(ctx context.Context, rec *model.AuditLogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *captureAuditStore) all() []*model.AuditLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.AuditLogRecord(nil), s.records...)
}

func TestAuditMiddlewareRecordsMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &captureAuditStore{}
	logger := services.NewAuditLogger(store, 16)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(contextUserKey, model.AuthUser{UserID: "user-1"})
	})
	router.Use(AuditMiddleware(logger))
	router.PUT("/api/journal/:id", func(c *gin.Context) {
		SetAuditOldValues(c, map[string]interface{}{"notes": "old"})
		c.Status(http.StatusOK)
	})
	router.GET("/api/journal/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/journal/42", strings.NewReader(`{"notes":"new"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	// Reads are never audited.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/journal/42", nil))

	logger.Close()

	records := store.all()
	if len(records) != 1 {
		t.Fatalf("Expected exactly 1 audit record, got %d", len(records))
	}
	rec := records[0]
	if rec.UserID != "user-1" {
		t.Errorf("Expected actor user-1, got %q", rec.UserID)
	}
	if rec.ActionType != "PUT" {
		t.Errorf("Expected action PUT, got %q", rec.ActionType)
	}
	if rec.Resource != "journal" {
		t.Errorf("Expected resource journal, got %q", rec.Resource)
	}
	if rec.RecordID != "42" {
		t.Errorf("Expected record ID 42, got %q", rec.RecordID)
	}
	if rec.OldValues == nil {
		t.Error("Expected a before snapshot")
	}
	newValues, ok := rec.NewValues.(map[string]interface{})
	if !ok || newValues["notes"] != "new" {
		t.Errorf("Expected captured request body, got %v", rec.NewValues)
	}
}

func TestAuditMiddlewareCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &captureAuditStore{}
	logger := services.NewAuditLogger(store, 16)

	router := gin.New()
	router.Use(RequestTracingMiddleware())
	router.Use(AuditMiddleware(logger))
	router.POST("/api/journal", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/journal", nil)
	req.Header.Set("X-Request-ID", "trace-abc-123")
	router.ServeHTTP(w, req)
	logger.Close()

	if got := w.Header().Get("X-Request-ID"); got != "trace-abc-123" {
		t.Errorf("Expected the upstream request id to be echoed, got %q", got)
	}
	records := store.all()
	if len(records) != 1 {
		t.Fatalf("Expected 1 audit record, got %d", len(records))
	}
	if records[0].RequestID != "trace-abc-123" {
		t.Errorf("Expected the audit record to carry the request id, got %q", records[0].RequestID)
	}
}

func TestRequestTracingGeneratesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestTracingMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := w.Header().Get("X-Request-ID")
	if id == "" {
		t.Fatal("Expected a generated request id header")
	}
	if w.Body.String() != id {
		t.Errorf("Handler saw %q but header carries %q", w.Body.String(), id)
	}
}

func TestAuditMiddlewarePreservesBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := services.NewAuditLogger(&captureAuditStore{}, 16)
	defer logger.Close()

	router := gin.New()
	router.Use(AuditMiddleware(logger))
	router.POST("/api/journal", func(c *gin.Context) {
		var body struct {
			Notes string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusOK, gin.H{"notes": body.Notes})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/journal", strings.NewReader(`{"notes":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Handler should still see the body, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "hello") {
		t.Errorf("Body was consumed by the audit snapshot: %s", w.Body.String())
	}
}

func TestAuditMiddlewareAnonymousActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &captureAuditStore{}
	logger := services.NewAuditLogger(store, 16)

	router := gin.New()
	router.Use(AuditMiddleware(logger))
	router.POST("/api/auth/login", func(c *gin.Context) {
		c.Status(http.StatusUnauthorized)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	logger.Close()

	records := store.all()
	if len(records) != 1 {
		t.Fatalf("Expected 1 audit record, got %d", len(records))
	}
	if records[0].UserID != "anonymous" {
		t.Errorf("Expected anonymous actor, got %q", records[0].UserID)
	}
	if records[0].RecordID != "N/A" {
		t.Errorf("Expected N/A record ID, got %q", records[0].RecordID)
	}
}
