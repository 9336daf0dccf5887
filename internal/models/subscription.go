package models

import "time"

// Subscription statuses of a tenant
const (
	SubscriptionTrialing = "trialing"
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// AI providers known to the key tester
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderAzure     = "azure"
	ProviderCustom    = "custom"
)

// Plan is a subscription tier with usage limits
type Plan struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	Description  *string   `db:"description" json:"description"`
	PriceMonthly float64   `db:"price_monthly" json:"price_monthly"`
	PriceYearly  float64   `db:"price_yearly" json:"price_yearly"`
	Currency     string    `db:"currency" json:"currency"`
	MaxUsers     int       `db:"max_users" json:"max_users"`
	MaxTasks     int       `db:"max_tasks" json:"max_tasks"`
	MaxTeams     int       `db:"max_teams" json:"max_teams"`
	MaxStorageMB int       `db:"max_storage_mb" json:"max_storage_mb"`
	MaxProjects  int       `db:"max_projects" json:"max_projects"`
	Features     JSONMap   `db:"features" json:"features"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	IsPublic     bool      `db:"is_public" json:"is_public"`
	SortOrder    int       `db:"sort_order" json:"sort_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Tenant is an organisation partition of users, teams and tasks
type Tenant struct {
	ID                 string     `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	Slug               string     `db:"slug" json:"slug"`
	Domain             *string    `db:"domain" json:"domain"`
	LogoURL            *string    `db:"logo_url" json:"logo_url"`
	Email              string     `db:"email" json:"email"`
	Timezone           string     `db:"timezone" json:"timezone"`
	PlanID             string     `db:"plan_id" json:"plan_id"`
	SubscriptionStatus string     `db:"subscription_status" json:"subscription_status"`
	TrialEndsAt        *time.Time `db:"trial_ends_at" json:"trial_ends_at"`
	SubscriptionEndsAt *time.Time `db:"subscription_ends_at" json:"subscription_ends_at"`
	Settings           JSONMap    `db:"settings" json:"settings"`
	IsActive           bool       `db:"is_active" json:"is_active"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// TenantUsage counts the resources a tenant currently holds
type TenantUsage struct {
	Users int `db:"users"`
	Tasks int `db:"tasks"`
	Teams int `db:"teams"`
}

// AIProviderKey is an encrypted third-party API credential owned by a tenant
type AIProviderKey struct {
	ID              string     `db:"id" json:"id"`
	TenantID        string     `db:"tenant_id" json:"tenant_id"`
	UserID          *string    `db:"user_id" json:"user_id"`
	Provider        string     `db:"provider" json:"provider"`
	Name            string     `db:"name" json:"name"`
	APIKeyEncrypted string     `db:"api_key_encrypted" json:"-"`
	Model           *string    `db:"model" json:"model"`
	BaseURL         *string    `db:"base_url" json:"base_url"`
	Settings        JSONMap    `db:"settings" json:"settings"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	LastUsedAt      *time.Time `db:"last_used_at" json:"last_used_at"`
	UsageCount      int        `db:"usage_count" json:"usage_count"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
