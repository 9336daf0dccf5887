package models

import (
	"time"

	"github.com/lib/pq"
)

// User represents a member of the organisation, including open positions
// on the org chart that have no login.
type User struct {
	ID              string     `db:"id" json:"id"`
	TenantID        *string    `db:"tenant_id" json:"tenant_id"`
	TenantRole      string     `db:"tenant_role" json:"tenant_role"`
	Name            string     `db:"name" json:"name"`
	Email           string     `db:"email" json:"email"`
	PasswordHash    *string    `db:"password_hash" json:"-"` // nil for vacancies
	Role            string     `db:"role" json:"role"`
	Position        *string    `db:"position" json:"position"`
	LineManager     *string    `db:"line_manager" json:"line_manager"`
	Status          string     `db:"status" json:"status"`
	AvatarURL       *string    `db:"avatar_url" json:"avatar_url"`
	StartDate       *string    `db:"start_date" json:"start_date"`
	EndDate         *string    `db:"end_date" json:"end_date"`
	Computer        *string    `db:"computer" json:"computer"`
	Mobile          *string    `db:"mobile" json:"mobile"`
	Phone           *string    `db:"phone" json:"phone"`
	Birthday        *string    `db:"birthday" json:"birthday"`
	DiscType        *string    `db:"disc_type" json:"disc_type"`
	PersonalityType *string    `db:"personality_type" json:"personality_type"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// PasswordResetToken is a single-use token emailed by forgot-password
type PasswordResetToken struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"token"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Task represents a unit of work on the planning board
type Task struct {
	ID                 string         `db:"id" json:"id"`
	TenantID           *string        `db:"tenant_id" json:"tenant_id"`
	Title              string         `db:"title" json:"title"`
	Description        *string        `db:"description" json:"description"`
	Status             string         `db:"status" json:"status"`
	Priority           string         `db:"priority" json:"priority"`
	AssignedTo         *string        `db:"assigned_to" json:"assigned_to"`
	TeamID             *string        `db:"team_id" json:"team_id"`
	DueDate            *time.Time     `db:"due_date" json:"due_date"`
	CreatedBy          *string        `db:"created_by" json:"created_by"`
	Tags               pq.StringArray `db:"tags" json:"tags"`
	EstimateHours      *float64       `db:"estimate_hours" json:"estimate_hours"`
	ReadinessChecklist Checklist      `db:"readiness_checklist" json:"readiness_checklist"`
	Size               *string        `db:"size" json:"size"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// ChecklistItem is one entry of a task's readiness checklist
type ChecklistItem struct {
	ID      string `json:"id,omitempty"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// Team groups users under a lead
type Team struct {
	ID          string    `db:"id" json:"id"`
	TenantID    *string   `db:"tenant_id" json:"tenant_id"`
	Name        string    `db:"name" json:"name"`
	Icon        *string   `db:"icon" json:"icon"`
	Description *string   `db:"description" json:"description"`
	LeadID      *string   `db:"lead_id" json:"lead_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TeamMember links a user to a team; (team_id, user_id) is unique
type TeamMember struct {
	ID        string    `db:"id" json:"id"`
	TeamID    string    `db:"team_id" json:"team_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Setting is a free-form key/value pair
type Setting struct {
	ID          string    `db:"id" json:"id"`
	Key         string    `db:"key" json:"key"`
	Value       string    `db:"value" json:"value"`
	Description *string   `db:"description" json:"description"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Diagram stores an editor document as opaque JSON text
type Diagram struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	DiagramData string    `db:"diagram_data" json:"diagram_data"`
	CreatedBy   *string   `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DraftHeadcount is a planned position that has not been filled yet
type DraftHeadcount struct {
	ID               string    `db:"id" json:"id"`
	PositionTitle    string    `db:"position_title" json:"position_title"`
	Department       *string   `db:"department" json:"department"`
	LineManager      *string   `db:"line_manager" json:"line_manager"`
	RequiredSkills   *string   `db:"required_skills" json:"required_skills"`
	Description      *string   `db:"description" json:"description"`
	Status           string    `db:"status" json:"status"`
	RecruitingStatus string    `db:"recruiting_status" json:"recruiting_status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Bookmark is a saved link
type Bookmark struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	URL         string         `db:"url" json:"url"`
	Favicon     *string        `db:"favicon" json:"favicon"`
	Description *string        `db:"description" json:"description"`
	Category    string         `db:"category" json:"category"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	UserID      *string        `db:"user_id" json:"user_id"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Collection is a named, shared group of bookmarks
type Collection struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	OwnerID   *string   `db:"owner_id" json:"owner_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Collection member roles
const (
	CollectionRoleOwner  = "owner"
	CollectionRoleEditor = "editor"
	CollectionRoleMember = "member"
)

// CollectionMember grants a user access to a collection
type CollectionMember struct {
	ID           string    `db:"id" json:"id"`
	CollectionID string    `db:"collection_id" json:"collection_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Username     string    `db:"username" json:"username"` // joined from users.name
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
