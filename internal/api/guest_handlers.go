package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/planning-tool/planner-server/internal/models"
)

// GuestLogin starts an anonymous translation trial
func (h *Handler) GuestLogin(c *gin.Context) {
	resp, err := h.service.CreateGuestSession(c.Request.Context(), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GuestTranslate(c *gin.Context) {
	var req models.GuestTranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.service.GuestTranslate(c.Request.Context(), req.SessionID, req.Text, c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GuestStatus(c *gin.Context) {
	resp, err := h.service.GuestStatus(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Admin

func (h *Handler) GuestStats(c *gin.Context) {
	stats, err := h.service.GuestStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListGuestTrials(c *gin.Context) {
	skip, limit, ok := pageParams(c)
	if !ok {
		return
	}
	activeOnly, err := strconv.ParseBool(c.DefaultQuery("active_only", "false"))
	if err != nil {
		badRequest(c, "active_only must be a boolean")
		return
	}

	trials, err := h.service.ListGuestTrials(c.Request.Context(), models.GuestTrialFilter{
		Skip:       skip,
		Limit:      limit,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trials)
}

func (h *Handler) ListGuestTranslations(c *gin.Context) {
	skip, limit, ok := pageParams(c)
	if !ok {
		return
	}

	logs, err := h.service.ListGuestTranslations(c.Request.Context(), models.GuestTranslationFilter{
		Skip:            skip,
		Limit:           limit,
		SessionIDPrefix: c.Query("session_id"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
