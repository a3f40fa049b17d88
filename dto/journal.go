package dto

// JournalEntryRequest carries one day of journaling. Field-level rules
// beyond presence (score ranges, meal dictionaries) belong to the
// client and are not re-validated here.
type JournalEntryRequest struct {
	EntryDate       string `json:"entry_date" binding:"required"`
	Calories        int    `json:"calories"`
	Protein         int    `json:"protein"`
	Carbs           int    `json:"carbs"`
	Fiber           int    `json:"fiber"`
	HasAllergens    bool   `json:"has_allergens"`
	MealsPerDay     int    `json:"meals_per_day"`
	HydrationLevel  int    `json:"hydration_level"`
	BowelFrequency  int    `json:"bowel_frequency"`
	BristolScale    int    `json:"bristol_scale" binding:"omitempty,min=1,max=7"`
	UrgencyLevel    int    `json:"urgency_level"`
	BloodPresent    bool   `json:"blood_present"`
	PainLocation    string `json:"pain_location"`
	PainSeverity    int    `json:"pain_severity" binding:"omitempty,min=0,max=10"`
	PainTime        string `json:"pain_time"`
	MedicationTaken bool   `json:"medication_taken"`
	MedicationType  string `json:"medication_type"`
	DosageLevel     string `json:"dosage_level"`
	SleepHours      int    `json:"sleep_hours"`
	StressLevel     int    `json:"stress_level" binding:"omitempty,min=0,max=10"`
	Menstruation    string `json:"menstruation" binding:"omitempty,oneof=yes no not_applicable"`
	FatigueLevel    int    `json:"fatigue_level"`
	Notes           string `json:"notes"`
}
