package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/service"
	"github.com/sirupsen/logrus"
)

// Handler serves the HTTP API on top of a Service
type Handler struct {
	service service.Service
	logger  logrus.FieldLogger
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{service: svc, logger: logger}
}

// SetupRoutes registers every route on the router. The router must already
// carry SecretMiddleware.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
	}

	guest := api.Group("/guest")
	{
		guest.POST("/login", h.GuestLogin)
		guest.POST("/translate", h.GuestTranslate)
		guest.GET("/status/:session_id", h.GuestStatus)
	}

	api.GET("/subscription/plans", h.ListPlans)
	api.GET("/subscription/plans/:id", h.GetPlan)

	// Authenticated routes
	authed := api.Group("")
	authed.Use(AuthMiddleware())
	{
		authed.GET("/auth/me", h.Me)

		authed.GET("/users", h.ListUsers)
		authed.GET("/members", h.ListUsers)
		authed.POST("/users", h.CreateUser)
		authed.GET("/users/:id", h.GetUser)
		authed.PUT("/users/:id", h.UpdateUser)
		authed.DELETE("/users/:id", h.DeleteUser)

		authed.GET("/tasks", h.ListTasks)
		authed.POST("/tasks", h.CreateTask)
		authed.GET("/tasks/:id", h.GetTask)
		authed.PUT("/tasks/:id", h.UpdateTask)
		authed.DELETE("/tasks/:id", h.DeleteTask)

		authed.GET("/teams", h.ListTeams)
		authed.POST("/teams", h.CreateTeam)
		authed.GET("/teams/:id", h.GetTeam)
		authed.PUT("/teams/:id", h.UpdateTeam)
		authed.DELETE("/teams/:id", h.DeleteTeam)
		authed.GET("/teams/:id/members", h.ListTeamMembers)
		authed.PUT("/teams/:id/members", h.SetTeamMembers)
		authed.POST("/teams/:id/members/:user_id", h.AddTeamMember)
		authed.DELETE("/teams/:id/members/:user_id", h.RemoveTeamMember)

		authed.GET("/settings", h.ListSettings)
		authed.POST("/settings", h.CreateSetting)
		authed.GET("/settings/:key", h.GetSetting)
		authed.PUT("/settings/:key", h.PutSetting)
		authed.DELETE("/settings/:key", h.DeleteSetting)

		authed.GET("/kpi/data/:subject", h.GetKPIData)
		authed.POST("/kpi/data", h.SaveKPIData)
		authed.GET("/kpi/sets", h.GetKPISets)
		authed.POST("/kpi/sets", h.SaveKPISets)

		authed.GET("/diagrams", h.ListDiagrams)
		authed.POST("/diagrams", h.CreateDiagram)
		authed.GET("/diagrams/:id", h.GetDiagram)
		authed.PUT("/diagrams/:id", h.UpdateDiagram)
		authed.DELETE("/diagrams/:id", h.DeleteDiagram)

		authed.GET("/draft-headcount", h.ListDraftHeadcount)
		authed.POST("/draft-headcount", h.CreateDraftHeadcount)
		authed.GET("/draft-headcount/:id", h.GetDraftHeadcount)
		authed.PUT("/draft-headcount/:id", h.UpdateDraftHeadcount)
		authed.DELETE("/draft-headcount/:id", h.DeleteDraftHeadcount)

		authed.GET("/leave-requests", h.ListLeaveRequests)
		authed.POST("/leave-requests", h.SubmitLeaveRequest)
		authed.GET("/leave-requests/:id", h.GetLeaveRequest)
		authed.PUT("/leave-requests/:id", h.UpdateLeaveRequest)
		authed.DELETE("/leave-requests/:id", h.DeleteLeaveRequest)
		authed.GET("/leave-balances", h.ListLeaveBalances)
		authed.GET("/leave-balances/:user_id", h.GetLeaveBalance)

		authed.GET("/bookmarks", h.ListBookmarks)
		authed.POST("/bookmarks", h.CreateBookmark)
		authed.PUT("/bookmarks/:id", h.UpdateBookmark)
		authed.DELETE("/bookmarks/:id", h.DeleteBookmark)

		authed.GET("/collections", h.ListCollections)
		authed.POST("/collections", h.CreateCollection)
		authed.GET("/collections/:name", h.GetCollection)
		authed.DELETE("/collections/:name", h.DeleteCollection)
		authed.POST("/collections/:name/members", h.AddCollectionMember)
		authed.DELETE("/collections/:name/members/:username", h.RemoveCollectionMember)

		authed.GET("/subscription/info", h.GetSubscriptionInfo)
		authed.GET("/subscription/ai-keys", h.ListAIKeys)
	}

	// Admin routes
	admin := api.Group("")
	admin.Use(AuthMiddleware(), RequireAdmin())
	{
		admin.GET("/guest/admin/stats", h.GuestStats)
		admin.GET("/guest/admin/trials", h.ListGuestTrials)
		admin.GET("/guest/admin/translations", h.ListGuestTranslations)

		admin.PUT("/subscription/tenant", h.UpdateTenant)
		admin.POST("/subscription/ai-keys", h.CreateAIKey)
		admin.POST("/subscription/ai-keys/test", h.TestAIKey)
		admin.PUT("/subscription/ai-keys/:id", h.UpdateAIKey)
		admin.DELETE("/subscription/ai-keys/:id", h.DeleteAIKey)
	}
}

// Root returns the service banner
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Planning Tool API",
		"status":  "running",
	})
}

// Health reports whether the database is reachable
func (h *Handler) Health(c *gin.Context) {
	if err := h.service.Health(c.Request.Context()); err != nil {
		h.logger.WithError(err).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, models.HealthResponse{Status: "unhealthy", Database: "disconnected"})
		return
	}
	c.JSON(http.StatusOK, models.HealthResponse{Status: "healthy", Database: "connected"})
}

// tenantID takes the tenant_id query parameter, falling back to the token
func tenantID(c *gin.Context) string {
	if id := c.Query("tenant_id"); id != "" {
		return id
	}
	return c.GetString(ctxTenantID)
}

// pageParams reads skip and limit, reporting false after writing a 400
func pageParams(c *gin.Context) (skip, limit int, ok bool) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		badRequest(c, "skip must be a non-negative integer")
		return 0, 0, false
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		badRequest(c, "limit must be a positive integer")
		return 0, 0, false
	}
	return skip, limit, true
}
