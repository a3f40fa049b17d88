package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"main/model"
	"main/services"

	"github.com/gin-gonic/gin"
)

const auditOldValuesKey = "audit_old_values"

// SetAuditOldValues stashes the prior state of the record a PUT or
// DELETE handler is about to mutate, so the audit record carries a
// before snapshot.
func SetAuditOldValues(c *gin.Context, v interface{}) {
	c.Set(auditOldValuesKey, v)
}

// AuditMiddleware records every mutating request after the handler has
// produced its response. Records are handed to the audit logger's
// background worker; persistence never delays or fails the response.
func AuditMiddleware(logger *services.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "DELETE" {
			c.Next()
			return
		}

		var newValues interface{}
		if method == "POST" || method == "PUT" {
			newValues = snapshotRequestBody(c)
		}

		c.Next()

		userID := "anonymous"
		if user, ok := CurrentUser(c); ok {
			userID = user.UserID
		}

		recordID := c.Param("id")
		if recordID == "" {
			recordID = "N/A"
		}

		rec := &model.AuditLogRecord{
			UserID:     userID,
			ActionType: method,
			Resource:   resourceFromPath(c.Request.URL.Path),
			RecordID:   recordID,
			NewValues:  newValues,
			RequestID:  RequestID(c),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Timestamp:  time.Now(),
		}
		if old, ok := c.Get(auditOldValuesKey); ok {
			rec.OldValues = old
		}

		logger.Record(rec)
	}
}

// snapshotRequestBody captures the JSON body for the audit trail and
// restores it for the handler.
func snapshotRequestBody(c *gin.Context) interface{} {
	if c.Request.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))

	if len(raw) == 0 {
		return nil
	}
	var parsed interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return string(raw)
	}
	return parsed
}

// resourceFromPath derives the audited resource name from the second
// path segment: /api/journal/entries -> "journal".
func resourceFromPath(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) > 1 {
		return parts[1]
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return ""
}
