package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"main/dto"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// PredictionHandler forwards journal data to the external flare
// prediction service and relays its answer.
type PredictionHandler struct {
	URL    string
	Client *http.Client
}

func NewPredictionHandler(url string) *PredictionHandler {
	return &PredictionHandler{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *PredictionHandler) Predict(c *gin.Context) {
	var req dto.JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	payload, err := json.Marshal(req)
	if err != nil {
		utils.InternalError(c, "Internal server error")
		return
	}

	upstream, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, h.URL, bytes.NewReader(payload))
	if err != nil {
		utils.InternalError(c, "Internal server error")
		return
	}
	upstream.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(upstream)
	if err != nil {
		log.Printf("Warning: prediction service unreachable: %v", err)
		utils.TrackError("prediction", "upstream_unreachable")
		utils.BadGateway(c, "Prediction service unavailable")
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || resp.StatusCode != http.StatusOK {
		log.Printf("Warning: prediction service returned status %d", resp.StatusCode)
		utils.TrackError("prediction", "upstream_error")
		utils.BadGateway(c, "Prediction service unavailable")
		return
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		utils.TrackError("prediction", "bad_upstream_payload")
		utils.BadGateway(c, "Prediction service unavailable")
		return
	}

	utils.Success(c, result)
}
