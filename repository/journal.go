package repository

import (
	"context"
	"database/sql"
	"fmt"

	"main/model"
	"main/utils"
)

type JournalRepo struct {
	DB *sql.DB
}

func NewJournalRepo(db *sql.DB) *JournalRepo {
	return &JournalRepo{DB: db}
}

// entry_date is a DATE column; it is selected as text so it scans
// straight into the model's YYYY-MM-DD string.
const journalColumns = `entry_id, user_id, entry_date::text, calories, protein, carbs, fiber,
	has_allergens, meals_per_day, hydration_level, bowel_frequency, bristol_scale,
	urgency_level, blood_present, pain_location, pain_severity, pain_time,
	medication_taken, medication_type, dosage_level, sleep_hours, stress_level,
	menstruation, fatigue_level, notes, created_at, updated_at`

func scanJournalEntry(scan func(dest ...interface{}) error) (*model.JournalEntry, error) {
	var e model.JournalEntry
	err := scan(
		&e.EntryID, &e.UserID, &e.EntryDate, &e.Calories, &e.Protein, &e.Carbs, &e.Fiber,
		&e.HasAllergens, &e.MealsPerDay, &e.HydrationLevel, &e.BowelFrequency, &e.BristolScale,
		&e.UrgencyLevel, &e.BloodPresent, &e.PainLocation, &e.PainSeverity, &e.PainTime,
		&e.MedicationTaken, &e.MedicationType, &e.DosageLevel, &e.SleepHours, &e.StressLevel,
		&e.Menstruation, &e.FatigueLevel, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan journal entry: %w", err)
	}
	return &e, nil
}

func (r *JournalRepo) Create(ctx context.Context, e *model.JournalEntry) error {
	timer := utils.TrackDBOperation("insert", "journal_entries")
	defer timer.ObserveDuration()

	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO journal_entries (
			user_id, entry_date, calories, protein, carbs, fiber,
			has_allergens, meals_per_day, hydration_level, bowel_frequency,
			bristol_scale, urgency_level, blood_present, pain_location,
			pain_severity, pain_time, medication_taken, medication_type,
			dosage_level, sleep_hours, stress_level, menstruation,
			fatigue_level, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING entry_id, created_at, updated_at`,
		e.UserID, e.EntryDate, e.Calories, e.Protein, e.Carbs, e.Fiber,
		e.HasAllergens, e.MealsPerDay, e.HydrationLevel, e.BowelFrequency,
		e.BristolScale, e.UrgencyLevel, e.BloodPresent, e.PainLocation,
		e.PainSeverity, e.PainTime, e.MedicationTaken, e.MedicationType,
		e.DosageLevel, e.SleepHours, e.StressLevel, e.Menstruation,
		e.FatigueLevel, e.Notes,
	).Scan(&e.EntryID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		utils.TrackError("database", "journal_insert_failed")
		return fmt.Errorf("failed to create journal entry: %w", err)
	}
	return nil
}

func (r *JournalRepo) GetByID(ctx context.Context, entryID int64) (*model.JournalEntry, error) {
	timer := utils.TrackDBOperation("find", "journal_entries")
	defer timer.ObserveDuration()

	row := r.DB.QueryRowContext(ctx,
		`SELECT `+journalColumns+` FROM journal_entries WHERE entry_id = $1`,
		entryID,
	)
	return scanJournalEntry(row.Scan)
}

func (r *JournalRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error) {
	timer := utils.TrackDBOperation("find", "journal_entries")
	defer timer.ObserveDuration()

	if limit <= 0 {
		limit = 90
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+journalColumns+` FROM journal_entries
		 WHERE user_id = $1 ORDER BY entry_date DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		utils.TrackError("database", "journal_list_failed")
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.JournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *JournalRepo) Update(ctx context.Context, e *model.JournalEntry) error {
	timer := utils.TrackDBOperation("update", "journal_entries")
	defer timer.ObserveDuration()

	result, err := r.DB.ExecContext(ctx, `
		UPDATE journal_entries SET
			entry_date = $2, calories = $3, protein = $4, carbs = $5, fiber = $6,
			has_allergens = $7, meals_per_day = $8, hydration_level = $9,
			bowel_frequency = $10, bristol_scale = $11, urgency_level = $12,
			blood_present = $13, pain_location = $14, pain_severity = $15,
			pain_time = $16, medication_taken = $17, medication_type = $18,
			dosage_level = $19, sleep_hours = $20, stress_level = $21,
			menstruation = $22, fatigue_level = $23, notes = $24,
			updated_at = NOW()
		WHERE entry_id = $1`,
		e.EntryID, e.EntryDate, e.Calories, e.Protein, e.Carbs, e.Fiber,
		e.HasAllergens, e.MealsPerDay, e.HydrationLevel, e.BowelFrequency,
		e.BristolScale, e.UrgencyLevel, e.BloodPresent, e.PainLocation,
		e.PainSeverity, e.PainTime, e.MedicationTaken, e.MedicationType,
		e.DosageLevel, e.SleepHours, e.StressLevel, e.Menstruation,
		e.FatigueLevel, e.Notes,
	)
	if err != nil {
		utils.TrackError("database", "journal_update_failed")
		return fmt.Errorf("failed to update journal entry: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *JournalRepo) Delete(ctx context.Context, entryID int64) error {
	timer := utils.TrackDBOperation("delete", "journal_entries")
	defer timer.ObserveDuration()

	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM journal_entries WHERE entry_id = $1`,
		entryID,
	)
	if err != nil {
		utils.TrackError("database", "journal_delete_failed")
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
