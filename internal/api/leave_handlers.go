package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/planning-tool/planner-server/internal/models"
)

func (h *Handler) ListLeaveRequests(c *gin.Context) {
	requests, err := h.service.ListLeaveRequests(c.Request.Context(), models.LeaveRequestFilter{
		UserID: c.Query("user_id"),
		Status: c.Query("status"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *Handler) GetLeaveRequest(c *gin.Context) {
	req, err := h.service.GetLeaveRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// SubmitLeaveRequest stores a pending request and opens the user's balance
func (h *Handler) SubmitLeaveRequest(c *gin.Context) {
	var body models.CreateLeaveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}

	req, err := h.service.SubmitLeaveRequest(c.Request.Context(), body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// UpdateLeaveRequest edits a request; a status change reconciles the balance
func (h *Handler) UpdateLeaveRequest(c *gin.Context) {
	var body models.UpdateLeaveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}

	req, err := h.service.UpdateLeaveRequest(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) DeleteLeaveRequest(c *gin.Context) {
	if err := h.service.DeleteLeaveRequest(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Leave request deleted successfully"})
}

func (h *Handler) ListLeaveBalances(c *gin.Context) {
	balances, err := h.service.ListLeaveBalances(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balances)
}

func (h *Handler) GetLeaveBalance(c *gin.Context) {
	balance, err := h.service.GetLeaveBalance(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}
