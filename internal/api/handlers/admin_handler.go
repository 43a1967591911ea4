package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/intervoice/backend/internal/services"
	"github.com/intervoice/backend/internal/utils"
)

type AdminHandler struct {
	interviews       services.InterviewService
	defaultRetention time.Duration
}

func NewAdminHandler(interviews services.InterviewService, defaultRetention time.Duration) *AdminHandler {
	return &AdminHandler{interviews: interviews, defaultRetention: defaultRetention}
}

type PurgeRequest struct {
	OlderThanHours int `json:"older_than_hours"`
}

// Purge removes abandoned (never-completed) sessions older than the given
// age, including their audio artifacts. Defaults to the configured retention.
func (h *AdminHandler) Purge(c *gin.Context) {
	var req PurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AdminHandler.Purge", "invalid request body", err))
		return
	}

	age := h.defaultRetention
	if req.OlderThanHours > 0 {
		age = time.Duration(req.OlderThanHours) * time.Hour
	}

	purged, err := h.interviews.PurgeAbandoned(c.Request.Context(), age)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purged":           purged,
		"older_than_hours": int(age.Hours()),
	})
}
