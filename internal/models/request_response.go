package models

import "time"

// Request models

type RegisterRequest struct {
	Name        string  `json:"name" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=6"`
	Role        string  `json:"role"`
	Position    *string `json:"position"`
	LineManager *string `json:"line_manager"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// CreateUserRequest adds an org-chart entry without a login
type CreateUserRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Role        *string `json:"role"`
	Position    *string `json:"position"`
	LineManager *string `json:"line_manager"`
	Status      *string `json:"status"`
	AvatarURL   *string `json:"avatar_url"`
}

// UpdateUserRequest only touches the fields that are present
type UpdateUserRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email" binding:"omitempty,email"`
	Password        *string `json:"password" binding:"omitempty,min=6"`
	Role            *string `json:"role"`
	Position        *string `json:"position"`
	LineManager     *string `json:"line_manager"`
	Status          *string `json:"status"`
	AvatarURL       *string `json:"avatar_url"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
	Computer        *string `json:"computer"`
	Mobile          *string `json:"mobile"`
	Phone           *string `json:"phone"`
	Birthday        *string `json:"birthday"`
	DiscType        *string `json:"disc_type"`
	PersonalityType *string `json:"personality_type"`
}

type CreateTaskRequest struct {
	Title              string          `json:"title" binding:"required"`
	Description        *string         `json:"description"`
	Status             string          `json:"status"`
	Priority           string          `json:"priority"`
	AssignedTo         *string         `json:"assigned_to"`
	TeamID             *string         `json:"team_id"`
	DueDate            *time.Time      `json:"due_date"`
	Tags               []string        `json:"tags"`
	EstimateHours      *float64        `json:"estimate_hours"`
	ReadinessChecklist []ChecklistItem `json:"readiness_checklist"`
	Size               *string         `json:"size"`
}

type UpdateTaskRequest struct {
	Title              *string          `json:"title"`
	Description        *string          `json:"description"`
	Status             *string          `json:"status"`
	Priority           *string          `json:"priority"`
	AssignedTo         *string          `json:"assigned_to"`
	TeamID             *string          `json:"team_id"`
	DueDate            *time.Time       `json:"due_date"`
	Tags               *[]string        `json:"tags"`
	EstimateHours      *float64         `json:"estimate_hours"`
	ReadinessChecklist *[]ChecklistItem `json:"readiness_checklist"`
	Size               *string          `json:"size"`
}

type TaskFilter struct {
	Status string
	Skip   int
	Limit  int
}

type CreateTeamRequest struct {
	Name        string  `json:"name" binding:"required"`
	Icon        *string `json:"icon"`
	Description *string `json:"description"`
	LeadID      *string `json:"lead_id"`
	TenantID    *string `json:"tenant_id"`
}

type UpdateTeamRequest struct {
	Name        *string `json:"name"`
	Icon        *string `json:"icon"`
	Description *string `json:"description"`
	LeadID      *string `json:"lead_id"`
}

type SettingRequest struct {
	Key         string  `json:"key" binding:"required"`
	Value       string  `json:"value"`
	Description *string `json:"description"`
}

type UpdateSettingRequest struct {
	Value       string  `json:"value"`
	Description *string `json:"description"`
}

type SaveKPIDataRequest struct {
	Subject  string      `json:"subject" binding:"required"`
	Document KPIDocument `json:"document"`
}

type SaveKPISetsRequest struct {
	Sets []KPISet `json:"sets"`
}

type DiagramRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	DiagramData string  `json:"diagram_data" binding:"required"`
}

type UpdateDiagramRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	DiagramData *string `json:"diagram_data"`
}

type DraftHeadcountRequest struct {
	PositionTitle    string  `json:"position_title" binding:"required"`
	Department       *string `json:"department"`
	LineManager      *string `json:"line_manager"`
	RequiredSkills   *string `json:"required_skills"`
	Description      *string `json:"description"`
	Status           string  `json:"status"`
	RecruitingStatus string  `json:"recruiting_status"`
}

type UpdateDraftHeadcountRequest struct {
	PositionTitle    *string `json:"position_title"`
	Department       *string `json:"department"`
	LineManager      *string `json:"line_manager"`
	RequiredSkills   *string `json:"required_skills"`
	Description      *string `json:"description"`
	Status           *string `json:"status"`
	RecruitingStatus *string `json:"recruiting_status"`
}

// CreateLeaveRequest is a submission. Any status supplied is ignored.
type CreateLeaveRequest struct {
	UserID      string   `json:"user_id" binding:"required"`
	UserName    string   `json:"user_name"`
	LeaveType   string   `json:"leave_type" binding:"required"`
	StartDate   string   `json:"start_date" binding:"required"`
	EndDate     string   `json:"end_date" binding:"required"`
	Days        *float64 `json:"days"`
	HalfDayType string   `json:"half_day_type"`
	Reason      string   `json:"reason"`
	Dates       []string `json:"dates"`
}

type UpdateLeaveRequest struct {
	LeaveType   *string   `json:"leave_type"`
	StartDate   *string   `json:"start_date"`
	EndDate     *string   `json:"end_date"`
	Days        *float64  `json:"days"`
	HalfDayType *string   `json:"half_day_type"`
	Reason      *string   `json:"reason"`
	Status      *string   `json:"status"`
	ReviewedBy  *string   `json:"reviewed_by"`
	Dates       *[]string `json:"dates"`
}

type GuestTranslateRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Text      string `json:"text"`
}

type BookmarkRequest struct {
	Title       string   `json:"title" binding:"required"`
	URL         string   `json:"url" binding:"required"`
	Favicon     *string  `json:"favicon"`
	Description *string  `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

type UpdateBookmarkRequest struct {
	Title       *string   `json:"title"`
	URL         *string   `json:"url"`
	Favicon     *string   `json:"favicon"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`
}

type CollectionRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddCollectionMemberRequest struct {
	Username string `json:"username" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=owner editor member"`
}

type UpdateTenantRequest struct {
	Name     *string `json:"name"`
	LogoURL  *string `json:"logo_url"`
	Timezone *string `json:"timezone"`
	Settings JSONMap `json:"settings"`
}

type CreateAIKeyRequest struct {
	Provider string  `json:"provider" binding:"required,oneof=openai anthropic google azure custom"`
	Name     string  `json:"name" binding:"required"`
	APIKey   string  `json:"api_key" binding:"required"`
	Model    *string `json:"model"`
	BaseURL  *string `json:"base_url"`
	Settings JSONMap `json:"settings"`
}

type UpdateAIKeyRequest struct {
	Name     *string `json:"name"`
	APIKey   *string `json:"api_key"`
	Model    *string `json:"model"`
	BaseURL  *string `json:"base_url"`
	Settings JSONMap `json:"settings"`
	IsActive *bool   `json:"is_active"`
}

type TestAIKeyRequest struct {
	Provider string  `json:"provider" binding:"required"`
	APIKey   string  `json:"api_key" binding:"required"`
	Model    *string `json:"model"`
	BaseURL  *string `json:"base_url"`
}

// Response models

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type LeaveBalanceResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	UserName        string  `json:"user_name"`
	AnnualTotal     float64 `json:"annual_total"`
	AnnualUsed      float64 `json:"annual_used"`
	AnnualRemaining float64 `json:"annual_remaining"`
	SickTotal       float64 `json:"sick_total"`
	SickUsed        float64 `json:"sick_used"`
	SickRemaining   float64 `json:"sick_remaining"`
}

// NewLeaveBalanceResponse derives the remaining days at read time
func NewLeaveBalanceResponse(b *LeaveBalance) LeaveBalanceResponse {
	return LeaveBalanceResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		UserName:        b.UserName,
		AnnualTotal:     b.AnnualTotal,
		AnnualUsed:      b.AnnualUsed,
		AnnualRemaining: b.AnnualTotal - b.AnnualUsed,
		SickTotal:       b.SickTotal,
		SickUsed:        b.SickUsed,
		SickRemaining:   b.SickTotal - b.SickUsed,
	}
}

type GuestLoginResponse struct {
	SessionID     string    `json:"session_id"`
	Username      string    `json:"username"`
	MaxUses       int       `json:"max_uses"`
	RemainingUses int       `json:"remaining_uses"`
	ExpiresAt     time.Time `json:"expires_at"`
	Message       string    `json:"message"`
}

type GuestTranslateResponse struct {
	OriginalText     string `json:"original_text"`
	TranslatedText   string `json:"translated_text"`
	DetectedLanguage string `json:"detected_language"`
	TargetLanguage   string `json:"target_language"`
	RemainingUses    int    `json:"remaining_uses"`
	UsageCount       int    `json:"usage_count"`
}

type GuestStatusResponse struct {
	SessionID     string    `json:"session_id"`
	Username      string    `json:"username"`
	UsageCount    int       `json:"usage_count"`
	MaxUses       int       `json:"max_uses"`
	RemainingUses int       `json:"remaining_uses"`
	ExpiresAt     time.Time `json:"expires_at"`
	IsExpired     bool      `json:"is_expired"`
	IsActive      bool      `json:"is_active"`
}

type GuestTrialSummary struct {
	ID            string     `json:"id"`
	SessionID     string     `json:"session_id"`
	Username      string     `json:"username"`
	IPAddress     *string    `json:"ip_address"`
	UsageCount    int        `json:"usage_count"`
	MaxUses       int        `json:"max_uses"`
	RemainingUses int        `json:"remaining_uses"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	LastUsedAt    *time.Time `json:"last_used_at"`
	IsExpired     bool       `json:"is_expired"`
}

type BookmarksResponse struct {
	Bookmarks []Bookmark `json:"bookmarks"`
}

type CollectionResponse struct {
	Collection
	Members []CollectionMember `json:"members"`
}

type UsageLimit struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

type SubscriptionInfoResponse struct {
	Tenant *Tenant `json:"tenant"`
	Plan   *Plan   `json:"plan"`
	Usage  struct {
		Users UsageLimit `json:"users"`
		Tasks UsageLimit `json:"tasks"`
		Teams UsageLimit `json:"teams"`
	} `json:"usage"`
}

type AIKeyResponse struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	Provider     string     `json:"provider"`
	Name         string     `json:"name"`
	APIKeyMasked string     `json:"api_key_masked"`
	Model        *string    `json:"model"`
	BaseURL      *string    `json:"base_url"`
	Settings     JSONMap    `json:"settings"`
	IsActive     bool       `json:"is_active"`
	LastUsedAt   *time.Time `json:"last_used_at"`
	UsageCount   int        `json:"usage_count"`
	CreatedAt    time.Time  `json:"created_at"`
}

type TestAIKeyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
