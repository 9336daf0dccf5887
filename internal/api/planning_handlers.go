package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/planning-tool/planner-server/internal/models"
)

// Tasks

func (h *Handler) ListTasks(c *gin.Context) {
	skip, limit, ok := pageParams(c)
	if !ok {
		return
	}

	tasks, err := h.service.ListTasks(c.Request.Context(), models.TaskFilter{
		Status: c.Query("status"),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.service.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) CreateTask(c *gin.Context) {
	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), c.GetString(ctxUserID), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	task, err := h.service.UpdateTask(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	if err := h.service.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Task deleted successfully"})
}

// Teams

func (h *Handler) ListTeams(c *gin.Context) {
	teams, err := h.service.ListTeams(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

func (h *Handler) GetTeam(c *gin.Context) {
	team, err := h.service.GetTeam(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (h *Handler) CreateTeam(c *gin.Context) {
	var req models.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.TenantID == nil {
		if tid := c.GetString(ctxTenantID); tid != "" {
			req.TenantID = &tid
		}
	}

	team, err := h.service.CreateTeam(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

func (h *Handler) UpdateTeam(c *gin.Context) {
	var req models.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	team, err := h.service.UpdateTeam(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (h *Handler) DeleteTeam(c *gin.Context) {
	if err := h.service.DeleteTeam(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Team deleted successfully"})
}

func (h *Handler) ListTeamMembers(c *gin.Context) {
	members, err := h.service.ListTeamMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *Handler) AddTeamMember(c *gin.Context) {
	if err := h.service.AddTeamMember(c.Request.Context(), c.Param("id"), c.Param("user_id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Member added to team"})
}

func (h *Handler) RemoveTeamMember(c *gin.Context) {
	if err := h.service.RemoveTeamMember(c.Request.Context(), c.Param("id"), c.Param("user_id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Member removed from team"})
}

// SetTeamMembers replaces the member set with the user ids in the body
func (h *Handler) SetTeamMembers(c *gin.Context) {
	var userIDs []string
	if err := c.ShouldBindJSON(&userIDs); err != nil {
		badRequest(c, err.Error())
		return
	}

	members, err := h.service.SetTeamMembers(c.Request.Context(), c.Param("id"), userIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// Settings

func (h *Handler) ListSettings(c *gin.Context) {
	settings, err := h.service.ListSettings(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) GetSetting(c *gin.Context) {
	setting, err := h.service.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (h *Handler) CreateSetting(c *gin.Context) {
	var req models.SettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	setting, err := h.service.CreateSetting(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, setting)
}

// PutSetting creates the key when it does not exist yet
func (h *Handler) PutSetting(c *gin.Context) {
	var req models.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	setting, err := h.service.PutSetting(c.Request.Context(), c.Param("key"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (h *Handler) DeleteSetting(c *gin.Context) {
	if err := h.service.DeleteSetting(c.Request.Context(), c.Param("key")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Setting deleted successfully"})
}

// KPI

func (h *Handler) GetKPIData(c *gin.Context) {
	profile, err := h.service.GetKPIData(c.Request.Context(), c.Param("subject"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) SaveKPIData(c *gin.Context) {
	var req models.SaveKPIDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	profile, err := h.service.SaveKPIData(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) GetKPISets(c *gin.Context) {
	sets, err := h.service.GetKPISets(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sets)
}

func (h *Handler) SaveKPISets(c *gin.Context) {
	var req models.SaveKPISetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	sets, err := h.service.SaveKPISets(c.Request.Context(), req.Sets)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sets)
}

// Diagrams

func (h *Handler) ListDiagrams(c *gin.Context) {
	diagrams, err := h.service.ListDiagrams(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, diagrams)
}

func (h *Handler) GetDiagram(c *gin.Context) {
	diagram, err := h.service.GetDiagram(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, diagram)
}

func (h *Handler) CreateDiagram(c *gin.Context) {
	var req models.DiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	diagram, err := h.service.CreateDiagram(c.Request.Context(), c.GetString(ctxUserID), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, diagram)
}

func (h *Handler) UpdateDiagram(c *gin.Context) {
	var req models.UpdateDiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	diagram, err := h.service.UpdateDiagram(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, diagram)
}

func (h *Handler) DeleteDiagram(c *gin.Context) {
	if err := h.service.DeleteDiagram(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Diagram deleted successfully"})
}

// Draft headcount

func (h *Handler) ListDraftHeadcount(c *gin.Context) {
	items, err := h.service.ListDraftHeadcount(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetDraftHeadcount(c *gin.Context) {
	item, err := h.service.GetDraftHeadcount(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) CreateDraftHeadcount(c *gin.Context) {
	var req models.DraftHeadcountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	item, err := h.service.CreateDraftHeadcount(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) UpdateDraftHeadcount(c *gin.Context) {
	var req models.UpdateDraftHeadcountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	item, err := h.service.UpdateDraftHeadcount(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteDraftHeadcount(c *gin.Context) {
	if err := h.service.DeleteDraftHeadcount(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Draft headcount deleted successfully"})
}
