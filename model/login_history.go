package model

import "time"

// Logout types recorded on login_history rows.
const (
	LogoutManual         = "manual"
	LogoutTimeout        = "timeout"
	LogoutSessionExpired = "session_expired"
)

type LoginHistoryRecord struct {
	ID         int64      `json:"id"`
	UserID     string     `json:"user_id"`
	LoginTime  time.Time  `json:"login_time"`
	LogoutTime *time.Time `json:"logout_time,omitempty"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	LogoutType string     `json:"logout_type,omitempty"`
}
