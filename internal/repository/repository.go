package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/planning-tool/planner-server/internal/models"
)

// ErrDuplicate is returned when an insert or update violates a unique constraint
var ErrDuplicate = errors.New("duplicate key")

// Lookups return (nil, nil) when the row does not exist.

// UserRepository stores users and password reset tokens
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) (bool, error)

	// ReplacePasswordResetToken drops every earlier token of the user
	ReplacePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error
	GetPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	DeletePasswordResetToken(ctx context.Context, id string) error
	// ResetPassword stores the new hash and consumes the token atomically
	ResetPassword(ctx context.Context, userID, passwordHash, tokenID string, now time.Time) error
}

// TaskRepository stores planning board tasks
type TaskRepository interface {
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) (bool, error)
}

// TeamRepository stores teams and their membership
type TeamRepository interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	CreateTeam(ctx context.Context, team *models.Team) error
	UpdateTeam(ctx context.Context, team *models.Team) error
	DeleteTeam(ctx context.Context, id string) (bool, error)

	ListTeamMembers(ctx context.Context, teamID string) ([]models.User, error)
	IsTeamMember(ctx context.Context, teamID, userID string) (bool, error)
	AddTeamMember(ctx context.Context, member *models.TeamMember) error
	RemoveTeamMember(ctx context.Context, teamID, userID string) (bool, error)
	// ReplaceTeamMembers swaps the member set, skipping unknown user ids
	ReplaceTeamMembers(ctx context.Context, teamID string, userIDs []string, now time.Time) error
}

// SettingRepository stores generic settings and typed KPI records
type SettingRepository interface {
	ListSettings(ctx context.Context) ([]models.Setting, error)
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	CreateSetting(ctx context.Context, setting *models.Setting) error
	UpsertSetting(ctx context.Context, setting *models.Setting) error
	DeleteSetting(ctx context.Context, key string) (bool, error)

	GetKPIProfile(ctx context.Context, subject string) (*models.KPIProfile, error)
	SaveKPIProfile(ctx context.Context, profile *models.KPIProfile) error
	GetKPISetCollection(ctx context.Context, scope string) (*models.KPISetCollection, error)
	SaveKPISetCollection(ctx context.Context, collection *models.KPISetCollection) error
}

// DiagramRepository stores diagram documents
type DiagramRepository interface {
	ListDiagrams(ctx context.Context) ([]models.Diagram, error)
	GetDiagram(ctx context.Context, id string) (*models.Diagram, error)
	CreateDiagram(ctx context.Context, diagram *models.Diagram) error
	UpdateDiagram(ctx context.Context, diagram *models.Diagram) error
	DeleteDiagram(ctx context.Context, id string) (bool, error)
}

// HeadcountRepository stores draft headcount positions
type HeadcountRepository interface {
	ListDraftHeadcount(ctx context.Context) ([]models.DraftHeadcount, error)
	GetDraftHeadcount(ctx context.Context, id string) (*models.DraftHeadcount, error)
	CreateDraftHeadcount(ctx context.Context, d *models.DraftHeadcount) error
	UpdateDraftHeadcount(ctx context.Context, d *models.DraftHeadcount) error
	DeleteDraftHeadcount(ctx context.Context, id string) (bool, error)
}

// LeaveRepository stores leave requests and balances. Every mutation goes
// through WithLeaveTx so the request row and the balance row change together.
type LeaveRepository interface {
	ListLeaveRequests(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, error)
	GetLeaveRequest(ctx context.Context, id string) (*models.LeaveRequest, error)
	ListLeaveBalances(ctx context.Context) ([]models.LeaveBalance, error)
	GetLeaveBalance(ctx context.Context, userID string) (*models.LeaveBalance, error)
	WithLeaveTx(ctx context.Context, fn func(tx LeaveTx) error) error
}

// LeaveTx is the transactional view of the leave tables. Lock methods hold
// the row until the transaction ends.
type LeaveTx interface {
	CreateLeaveRequest(req *models.LeaveRequest) error
	LockLeaveRequest(id string) (*models.LeaveRequest, error)
	UpdateLeaveRequest(req *models.LeaveRequest) error
	DeleteLeaveRequest(id string) error
	// EnsureLeaveBalance inserts a default row unless one already exists
	EnsureLeaveBalance(balance *models.LeaveBalance) error
	LockLeaveBalance(userID string) (*models.LeaveBalance, error)
	UpdateLeaveBalance(balance *models.LeaveBalance) error
}

// GuestRepository stores guest trials and their translation audit trail
type GuestRepository interface {
	CountActiveGuestTrialsByIP(ctx context.Context, ip string, now time.Time) (int, error)
	CreateGuestTrial(ctx context.Context, trial *models.GuestTrial) error
	GetGuestTrialBySession(ctx context.Context, sessionID string) (*models.GuestTrial, error)
	// RecordGuestTranslation increments usage only while below max_uses and
	// before expires_at, appending the log row in the same transaction. It
	// reports false, writing nothing, when the session is spent or expired.
	RecordGuestTranslation(ctx context.Context, trialID string, now time.Time, entry *models.GuestTranslationLog) (bool, error)

	GetGuestTrialStats(ctx context.Context, now time.Time) (*models.GuestTrialStats, error)
	ListGuestTrials(ctx context.Context, filter models.GuestTrialFilter) ([]models.GuestTrial, error)
	ListGuestTranslationLogs(ctx context.Context, filter models.GuestTranslationFilter) ([]models.GuestTranslationLog, error)
}

// BookmarkRepository stores bookmarks and shared collections
type BookmarkRepository interface {
	ListBookmarks(ctx context.Context, userID string) ([]models.Bookmark, error)
	GetBookmark(ctx context.Context, id string) (*models.Bookmark, error)
	CreateBookmark(ctx context.Context, b *models.Bookmark) error
	UpdateBookmark(ctx context.Context, b *models.Bookmark) error
	DeleteBookmark(ctx context.Context, id string) (bool, error)

	ListCollections(ctx context.Context, userID string) ([]models.Collection, error)
	GetCollectionByName(ctx context.Context, name string) (*models.Collection, error)
	// CreateCollection also registers the owner as a member
	CreateCollection(ctx context.Context, c *models.Collection) error
	DeleteCollection(ctx context.Context, id string) error
	ListCollectionMembers(ctx context.Context, collectionID string) ([]models.CollectionMember, error)
	GetCollectionMember(ctx context.Context, collectionID, userID string) (*models.CollectionMember, error)
	AddCollectionMember(ctx context.Context, m *models.CollectionMember) error
	RemoveCollectionMember(ctx context.Context, collectionID, userID string) (bool, error)
}

// SubscriptionRepository stores plans, tenants and AI provider keys
type SubscriptionRepository interface {
	ListPublicPlans(ctx context.Context) ([]models.Plan, error)
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	UpdateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenantUsage(ctx context.Context, tenantID string) (*models.TenantUsage, error)

	ListAIKeys(ctx context.Context, tenantID string) ([]models.AIProviderKey, error)
	GetAIKey(ctx context.Context, id string) (*models.AIProviderKey, error)
	// GetActiveAIKey returns the most recently created active key
	GetActiveAIKey(ctx context.Context, tenantID, provider string) (*models.AIProviderKey, error)
	CreateAIKey(ctx context.Context, key *models.AIProviderKey) error
	UpdateAIKey(ctx context.Context, key *models.AIProviderKey) error
	DeleteAIKey(ctx context.Context, id string) (bool, error)
	TouchAIKey(ctx context.Context, id string, now time.Time) error
}

// Repository is everything the services need from storage
type Repository interface {
	UserRepository
	TaskRepository
	TeamRepository
	SettingRepository
	DiagramRepository
	HeadcountRepository
	LeaveRepository
	GuestRepository
	BookmarkRepository
	SubscriptionRepository

	Ping(ctx context.Context) error
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// Ping checks the database connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn in a transaction that is rolled back when fn fails
func (r *PostgresRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// translateError maps driver errors onto repository errors
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func rowsAffected(res interface{ RowsAffected() (int64, error) }) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// prefixed qualifies a comma separated column list with a table alias
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
