package repository

import (
	"context"
	"database/sql"
	"fmt"

	"main/model"
	"main/utils"
)

type LoginHistoryRepo struct {
	DB *sql.DB
}

func NewLoginHistoryRepo(db *sql.DB) *LoginHistoryRepo {
	return &LoginHistoryRepo{DB: db}
}

func (r *LoginHistoryRepo) RecordLogin(ctx context.Context, rec *model.LoginHistoryRecord) error {
	timer := utils.TrackDBOperation("insert", "login_history")
	defer timer.ObserveDuration()

	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO login_history (user_id, login_time, ip_address, user_agent)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		rec.UserID, rec.LoginTime, rec.IPAddress, rec.UserAgent,
	).Scan(&rec.ID)
	if err != nil {
		utils.TrackError("database", "login_history_insert_failed")
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// CloseLatest stamps the newest open record for the user with a logout
// time and type. A user with no open record is a no-op.
func (r *LoginHistoryRepo) CloseLatest(ctx context.Context, userID, logoutType string) error {
	timer := utils.TrackDBOperation("update", "login_history")
	defer timer.ObserveDuration()

	_, err := r.DB.ExecContext(ctx, `
		UPDATE login_history SET logout_time = NOW(), logout_type = $1
		WHERE id = (
			SELECT id FROM login_history
			WHERE user_id = $2 AND logout_time IS NULL
			ORDER BY login_time DESC LIMIT 1
		)`,
		logoutType, userID,
	)
	if err != nil {
		utils.TrackError("database", "login_history_close_failed")
		return fmt.Errorf("failed to close login history: %w", err)
	}
	return nil
}

func (r *LoginHistoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.LoginHistoryRecord, error) {
	timer := utils.TrackDBOperation("find", "login_history")
	defer timer.ObserveDuration()

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, login_time, logout_time, ip_address, user_agent, logout_type
		FROM login_history
		WHERE user_id = $1
		ORDER BY login_time DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		utils.TrackError("database", "login_history_list_failed")
		return nil, fmt.Errorf("failed to list login history: %w", err)
	}
	defer rows.Close()

	var records []*model.LoginHistoryRecord
	for rows.Next() {
		var rec model.LoginHistoryRecord
		var logoutTime sql.NullTime
		var logoutType sql.NullString
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.LoginTime, &logoutTime,
			&rec.IPAddress, &rec.UserAgent, &logoutType); err != nil {
			return nil, fmt.Errorf("failed to scan login history row: %w", err)
		}
		if logoutTime.Valid {
			t := logoutTime.Time
			rec.LogoutTime = &t
		}
		rec.LogoutType = logoutType.String
		records = append(records, &rec)
	}
	return records, rows.Err()
}
