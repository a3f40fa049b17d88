package model

import "time"

// JournalEntry is one day of symptom and nutrition journaling.
type JournalEntry struct {
	EntryID         int64     `json:"entry_id"`
	UserID          string    `json:"user_id"`
	EntryDate       string    `json:"entry_date"`
	Calories        int       `json:"calories"`
	Protein         int       `json:"protein"`
	Carbs           int       `json:"carbs"`
	Fiber           int       `json:"fiber"`
	HasAllergens    bool      `json:"has_allergens"`
	MealsPerDay     int       `json:"meals_per_day"`
	HydrationLevel  int       `json:"hydration_level"`
	BowelFrequency  int       `json:"bowel_frequency"`
	BristolScale    int       `json:"bristol_scale"`
	UrgencyLevel    int       `json:"urgency_level"`
	BloodPresent    bool      `json:"blood_present"`
	PainLocation    string    `json:"pain_location"`
	PainSeverity    int       `json:"pain_severity"`
	PainTime        string    `json:"pain_time"`
	MedicationTaken bool      `json:"medication_taken"`
	MedicationType  string    `json:"medication_type"`
	DosageLevel     string    `json:"dosage_level"`
	SleepHours      int       `json:"sleep_hours"`
	StressLevel     int       `json:"stress_level"`
	Menstruation    string    `json:"menstruation"`
	FatigueLevel    int       `json:"fatigue_level"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
