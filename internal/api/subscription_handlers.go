package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/planning-tool/planner-server/internal/models"
)

func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (h *Handler) GetPlan(c *gin.Context) {
	plan, err := h.service.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetSubscriptionInfo returns the tenant, its plan and usage against limits
func (h *Handler) GetSubscriptionInfo(c *gin.Context) {
	info, err := h.service.GetSubscriptionInfo(c.Request.Context(), tenantID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) UpdateTenant(c *gin.Context) {
	var req models.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	tenant, err := h.service.UpdateTenant(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// AI provider keys

func (h *Handler) ListAIKeys(c *gin.Context) {
	keys, err := h.service.ListAIKeys(c.Request.Context(), tenantID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, keys)
}

func (h *Handler) CreateAIKey(c *gin.Context) {
	var req models.CreateAIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	key, err := h.service.CreateAIKey(c.Request.Context(), tenantID(c), c.GetString(ctxUserID), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, key)
}

func (h *Handler) UpdateAIKey(c *gin.Context) {
	var req models.UpdateAIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	key, err := h.service.UpdateAIKey(c.Request.Context(), tenantID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, key)
}

func (h *Handler) DeleteAIKey(c *gin.Context) {
	if err := h.service.DeleteAIKey(c.Request.Context(), tenantID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "API key deleted successfully"})
}

// TestAIKey always answers 200; the outcome is in the body
func (h *Handler) TestAIKey(c *gin.Context) {
	var req models.TestAIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.service.TestAIKey(c.Request.Context(), req))
}
