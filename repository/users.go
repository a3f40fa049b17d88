package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"main/model"
	"main/utils"
)

// Unique-constraint collisions from profile updates, distinguished so
// the handler can tell the client which field clashed.
var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
)

type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userColumns = `user_id, username, email, password_hash, failed_login_attempts,
	account_locked, mfa_secret, password_last_changed, created_at,
	first_name, last_name, display_name, COALESCE(date_of_birth::text, ''), gender,
	phone_number, emergency_contact_name, emergency_contact_phone,
	address, city, state, country, postal_code`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.UserID, &u.Username, &u.Email, &u.PasswordHash, &u.FailedLoginAttempts,
		&u.AccountLocked, &u.MFASecret, &u.PasswordLastChanged, &u.CreatedAt,
		&u.FirstName, &u.LastName, &u.DisplayName, &u.DateOfBirth, &u.Gender,
		&u.PhoneNumber, &u.EmergencyContactName, &u.EmergencyContactPhone,
		&u.Address, &u.City, &u.State, &u.Country, &u.PostalCode,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// FindByIdentifier looks a user up by email or username.
func (r *UserRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $1`,
		identifier,
	)
	return scanUser(row)
}

func (r *UserRepo) FindByID(ctx context.Context, userID string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`,
		userID,
	)
	return scanUser(row)
}

// RecordFailedLogin bumps the failed-attempt counter and trips the
// lockout flag in one statement, so two concurrent failures cannot
// both observe the pre-threshold count and skip the lock.
func (r *UserRepo) RecordFailedLogin(ctx context.Context, userID string, threshold int) (int, bool, error) {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	var attempts int
	var locked bool
	err := r.DB.QueryRowContext(ctx, `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    account_locked = account_locked OR (failed_login_attempts + 1 >= $2)
		WHERE user_id = $1
		RETURNING failed_login_attempts, account_locked`,
		userID, threshold,
	).Scan(&attempts, &locked)
	if err != nil {
		utils.TrackError("database", "failed_login_update")
		return 0, false, fmt.Errorf("failed to record login failure: %w", err)
	}
	return attempts, locked, nil
}

func (r *UserRepo) ResetFailedLogins(ctx context.Context, userID string) error {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET failed_login_attempts = 0 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		utils.TrackError("database", "reset_failed_logins")
		return fmt.Errorf("failed to reset login counter: %w", err)
	}
	return nil
}

// Unlock clears a lockout. Admin action only.
func (r *UserRepo) Unlock(ctx context.Context, userID string) error {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	result, err := r.DB.ExecContext(ctx,
		`UPDATE users SET account_locked = FALSE, failed_login_attempts = 0 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		utils.TrackError("database", "unlock_failed")
		return fmt.Errorf("failed to unlock account: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	timer := utils.TrackDBOperation("insert", "users")
	defer timer.ObserveDuration()

	if user.Username == "" || user.PasswordHash == "" {
		utils.TrackError("database", "invalid_user_data")
		return fmt.Errorf("username and password hash required")
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (user_id, username, email, password_hash, mfa_secret, password_last_changed, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
		user.UserID, user.Username, user.Email, user.PasswordHash, user.MFASecret,
	)
	if err != nil {
		utils.TrackError("database", "user_creation_failed")
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UsernameOrEmailTaken reports which of the two identifiers collide
// with an existing account.
func (r *UserRepo) UsernameOrEmailTaken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	timer := utils.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	rows, err := r.DB.QueryContext(ctx,
		`SELECT username, email FROM users WHERE username = $1 OR email = $2`,
		username, email,
	)
	if err != nil {
		return false, false, fmt.Errorf("failed to check existing users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u, e string
		if err := rows.Scan(&u, &e); err != nil {
			return false, false, fmt.Errorf("failed to scan user row: %w", err)
		}
		if u == username {
			usernameTaken = true
		}
		if e == email {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken, rows.Err()
}

// UpdateProfile writes the editable profile fields of a user. The
// caller merges partial input into a fetched user first, so every
// column is written. An empty date of birth is stored as NULL.
func (r *UserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	result, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET username = $2, email = $3,
		    first_name = $4, last_name = $5, display_name = $6,
		    date_of_birth = NULLIF($7, '')::date, gender = $8, phone_number = $9,
		    emergency_contact_name = $10, emergency_contact_phone = $11,
		    address = $12, city = $13, state = $14, country = $15, postal_code = $16
		WHERE user_id = $1`,
		user.UserID, user.Username, user.Email,
		user.FirstName, user.LastName, user.DisplayName,
		user.DateOfBirth, user.Gender, user.PhoneNumber,
		user.EmergencyContactName, user.EmergencyContactPhone,
		user.Address, user.City, user.State, user.Country, user.PostalCode,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "users_username_key":
				return ErrUsernameTaken
			case "users_email_key":
				return ErrEmailTaken
			}
		}
		utils.TrackError("database", "profile_update_failed")
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ChangePassword swaps the stored hash and restarts the password-age
// clock.
func (r *UserRepo) ChangePassword(ctx context.Context, userID, passwordHash string) error {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	result, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, password_last_changed = NOW() WHERE user_id = $1`,
		userID, passwordHash,
	)
	if err != nil {
		utils.TrackError("database", "password_change_failed")
		return fmt.Errorf("failed to change password: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetMFASecret stores (or clears, with an empty string) the TOTP
// secret for a user.
func (r *UserRepo) SetMFASecret(ctx context.Context, userID, secret string) error {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	result, err := r.DB.ExecContext(ctx,
		`UPDATE users SET mfa_secret = $2 WHERE user_id = $1`,
		userID, secret,
	)
	if err != nil {
		utils.TrackError("database", "mfa_update_failed")
		return fmt.Errorf("failed to update MFA secret: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
