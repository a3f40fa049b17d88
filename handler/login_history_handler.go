package handler

import (
	"context"
	"net/http"
	"strconv"

	"main/model"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type HistoryLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.LoginHistoryRecord, error)
}

type LoginHistoryHandler struct {
	History HistoryLister
}

func NewLoginHistoryHandler(history HistoryLister) *LoginHistoryHandler {
	return &LoginHistoryHandler{History: history}
}

// List returns the login history for the user in the path. Access
// control (own data vs clinician in the same organization) is
// enforced by the route's middleware chain.
func (h *LoginHistoryHandler) List(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		utils.BadRequest(c, "Missing user ID")
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

	records, err := h.History.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		utils.TrackError("history", "list_failed")
		utils.InternalError(c, "Internal server error")
		return
	}
	if records == nil {
		records = []*model.LoginHistoryRecord{}
	}

	// Clients expect a bare array, not the response envelope.
	c.JSON(http.StatusOK, records)
}
