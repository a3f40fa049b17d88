package model

import "time"

// AuditLogRecord is an append-only snapshot of a mutating request.
// OldValues/NewValues hold free-form JSON captured around the handler.
type AuditLogRecord struct {
	UserID     string      `bson:"user_id" json:"user_id"`
	ActionType string      `bson:"action_type" json:"action_type"`
	Resource   string      `bson:"resource" json:"resource"`
	RecordID   string      `bson:"record_id" json:"record_id"`
	OldValues  interface{} `bson:"old_values,omitempty" json:"old_values,omitempty"`
	NewValues  interface{} `bson:"new_values,omitempty" json:"new_values,omitempty"`
	RequestID  string      `bson:"request_id,omitempty" json:"request_id,omitempty"`
	IPAddress  string      `bson:"ip_address" json:"ip_address"`
	UserAgent  string      `bson:"user_agent" json:"user_agent"`
	Timestamp  time.Time   `bson:"timestamp" json:"timestamp"`
}
