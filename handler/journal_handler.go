package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"main/dto"
	"main/middleware"
	"main/model"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type JournalStore interface {
	Create(ctx context.Context, entry *model.JournalEntry) error
	GetByID(ctx context.Context, entryID int64) (*model.JournalEntry, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error)
	Update(ctx context.Context, entry *model.JournalEntry) error
	Delete(ctx context.Context, entryID int64) error
}

type JournalHandler struct {
	Journal JournalStore
}

func NewJournalHandler(journal JournalStore) *JournalHandler {
	return &JournalHandler{Journal: journal}
}

func applyJournalRequest(e *model.JournalEntry, req *dto.JournalEntryRequest) {
	e.EntryDate = req.EntryDate
	e.Calories = req.Calories
	e.Protein = req.Protein
	e.Carbs = req.Carbs
	e.Fiber = req.Fiber
	e.HasAllergens = req.HasAllergens
	e.MealsPerDay = req.MealsPerDay
	e.HydrationLevel = req.HydrationLevel
	e.BowelFrequency = req.BowelFrequency
	e.BristolScale = req.BristolScale
	e.UrgencyLevel = req.UrgencyLevel
	e.BloodPresent = req.BloodPresent
	e.PainLocation = req.PainLocation
	e.PainSeverity = req.PainSeverity
	e.PainTime = req.PainTime
	e.MedicationTaken = req.MedicationTaken
	e.MedicationType = req.MedicationType
	e.DosageLevel = req.DosageLevel
	e.SleepHours = req.SleepHours
	e.StressLevel = req.StressLevel
	e.Menstruation = req.Menstruation
	e.FatigueLevel = req.FatigueLevel
	e.Notes = req.Notes
}

func (h *JournalHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Invalid or expired session")
		return
	}

	var req dto.JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	entry := &model.JournalEntry{UserID: user.UserID}
	applyJournalRequest(entry, &req)

	if err := h.Journal.Create(c.Request.Context(), entry); err != nil {
		utils.TrackError("journal", "create_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	utils.Created(c, entry)
}

func (h *JournalHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Invalid or expired session")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.BadRequest(c, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.Journal.ListByUser(c.Request.Context(), user.UserID, limit)
	if err != nil {
		utils.TrackError("journal", "list_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	utils.Success(c, gin.H{"entries": entries})
}

func (h *JournalHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Invalid or expired session")
		return
	}

	entry, _ := h.fetchOwned(c, user.UserID)
	if entry == nil {
		return
	}
	utils.Success(c, entry)
}

func (h *JournalHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Invalid or expired session")
		return
	}

	var req dto.JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	entry, _ := h.fetchOwned(c, user.UserID)
	if entry == nil {
		return
	}

	prior := *entry
	middleware.SetAuditOldValues(c, prior)

	applyJournalRequest(entry, &req)
	if err := h.Journal.Update(c.Request.Context(), entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.NotFound(c, "Journal entry not found")
			return
		}
		utils.TrackError("journal", "update_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	utils.Success(c, entry)
}

func (h *JournalHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "Invalid or expired session")
		return
	}

	entry, _ := h.fetchOwned(c, user.UserID)
	if entry == nil {
		return
	}

	middleware.SetAuditOldValues(c, *entry)

	if err := h.Journal.Delete(c.Request.Context(), entry.EntryID); err != nil {
		utils.TrackError("journal", "delete_failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	utils.Success(c, gin.H{"message": "Journal entry deleted"})
}

// fetchOwned resolves :id, loads the entry, and rejects access to
// entries the caller does not own. A nil result means a response has
// already been written.
func (h *JournalHandler) fetchOwned(c *gin.Context, userID string) (*model.JournalEntry, error) {
	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.BadRequest(c, "Invalid entry ID")
		return nil, err
	}

	entry, err := h.Journal.GetByID(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.NotFound(c, "Journal entry not found")
			return nil, err
		}
		utils.TrackError("journal", "get_failed")
		utils.InternalError(c, "Internal server error")
		return nil, err
	}
	if entry == nil {
		utils.NotFound(c, "Journal entry not found")
		return nil, nil
	}
	if entry.UserID != userID {
		utils.Forbidden(c, "Access denied")
		return nil, nil
	}
	return entry, nil
}
