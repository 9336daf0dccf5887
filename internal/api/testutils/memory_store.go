package testutils

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/repository"
)

// MemoryStore is an in-memory repository.Repository for tests. It enforces
// the same unique keys as the Postgres schema and serialises every call.
type MemoryStore struct {
	mu sync.Mutex

	users          map[string]models.User
	resetTokens    map[string]models.PasswordResetToken
	tasks          map[string]models.Task
	teams          map[string]models.Team
	teamMembers    map[string]models.TeamMember
	settings       map[string]models.Setting
	kpiProfiles    map[string]models.KPIProfile
	kpiSets        map[string]models.KPISetCollection
	diagrams       map[string]models.Diagram
	headcount      map[string]models.DraftHeadcount
	leaveRequests  map[string]models.LeaveRequest
	leaveBalances  map[string]models.LeaveBalance // by user id
	guestTrials    map[string]models.GuestTrial
	guestLogs      []models.GuestTranslationLog
	bookmarks      map[string]models.Bookmark
	collections    map[string]models.Collection
	collectionMems map[string]models.CollectionMember
	plans          map[string]models.Plan
	tenants        map[string]models.Tenant
	aiKeys         map[string]models.AIProviderKey

	// PingErr is returned by Ping when set
	PingErr error
}

var _ repository.Repository = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:          map[string]models.User{},
		resetTokens:    map[string]models.PasswordResetToken{},
		tasks:          map[string]models.Task{},
		teams:          map[string]models.Team{},
		teamMembers:    map[string]models.TeamMember{},
		settings:       map[string]models.Setting{},
		kpiProfiles:    map[string]models.KPIProfile{},
		kpiSets:        map[string]models.KPISetCollection{},
		diagrams:       map[string]models.Diagram{},
		headcount:      map[string]models.DraftHeadcount{},
		leaveRequests:  map[string]models.LeaveRequest{},
		leaveBalances:  map[string]models.LeaveBalance{},
		guestTrials:    map[string]models.GuestTrial{},
		bookmarks:      map[string]models.Bookmark{},
		collections:    map[string]models.Collection{},
		collectionMems: map[string]models.CollectionMember{},
		plans:          map[string]models.Plan{},
		tenants:        map[string]models.Tenant{},
		aiKeys:         map[string]models.AIProviderKey{},
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return m.PingErr
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

// Seeding helpers for tables the API never inserts into

func (m *MemoryStore) AddPlan(plan models.Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&plan.ID)
	m.plans[plan.ID] = plan
}

func (m *MemoryStore) AddTenant(tenant models.Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&tenant.ID)
	m.tenants[tenant.ID] = tenant
}

// PutGuestTrial stores a trial as is, replacing any with the same id
func (m *MemoryStore) PutGuestTrial(trial models.GuestTrial) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&trial.ID)
	m.guestTrials[trial.ID] = trial
}

// GuestLogs returns a copy of the translation audit trail
func (m *MemoryStore) GuestLogs() []models.GuestTranslationLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.GuestTranslationLog(nil), m.guestLogs...)
}

// Users

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	ensureID(&user.ID)
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) findUser(match func(u *models.User) bool) *models.User {
	for _, u := range m.users {
		u := u
		if match(&u) {
			return &u
		}
	}
	return nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findUser(func(u *models.User) bool { return u.Email == email }), nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *MemoryStore) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findUser(func(u *models.User) bool { return u.Name == name }), nil
}

func (m *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (m *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) DeleteUser(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	for key, tm := range m.teamMembers {
		if tm.UserID == id {
			delete(m.teamMembers, key)
		}
	}
	return true, nil
}

func (m *MemoryStore) ReplacePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.resetTokens {
		if t.UserID == token.UserID {
			delete(m.resetTokens, id)
		}
	}
	ensureID(&token.ID)
	m.resetTokens[token.ID] = *token
	return nil
}

// ResetTokenFor returns the user's outstanding reset token, or "" if none
func (m *MemoryStore) ResetTokenFor(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.resetTokens {
		if t.UserID == userID {
			return t.Token
		}
	}
	return ""
}

func (m *MemoryStore) GetPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.resetTokens {
		if t.Token == token {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) DeletePasswordResetToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.resetTokens, id)
	return nil
}

func (m *MemoryStore) ResetPassword(ctx context.Context, userID, passwordHash, tokenID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.PasswordHash = &passwordHash
		u.UpdatedAt = now
		m.users[userID] = u
	}
	delete(m.resetTokens, tokenID)
	return nil
}

// Tasks

func (m *MemoryStore) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := []models.Task{}
	for _, t := range m.tasks {
		if filter.Status == "" || t.Status == filter.Status {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return page(tasks, filter.Skip, filter.Limit), nil
}

func (m *MemoryStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (m *MemoryStore) CreateTask(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&task.ID)
	m.tasks[task.ID] = *task
	return nil
}

func (m *MemoryStore) UpdateTask(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = *task
	return nil
}

func (m *MemoryStore) DeleteTask(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[id]
	delete(m.tasks, id)
	return ok, nil
}

// Teams

func (m *MemoryStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	teams := make([]models.Team, 0, len(m.teams))
	for _, t := range m.teams {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

func (m *MemoryStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.teams[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (m *MemoryStore) CreateTeam(ctx context.Context, team *models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&team.ID)
	m.teams[team.ID] = *team
	return nil
}

func (m *MemoryStore) UpdateTeam(ctx context.Context, team *models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[team.ID] = *team
	return nil
}

func (m *MemoryStore) DeleteTeam(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[id]; !ok {
		return false, nil
	}
	delete(m.teams, id)
	for key, tm := range m.teamMembers {
		if tm.TeamID == id {
			delete(m.teamMembers, key)
		}
	}
	return true, nil
}

func memberKey(a, b string) string { return a + "/" + b }

func (m *MemoryStore) ListTeamMembers(ctx context.Context, teamID string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []models.User{}
	for _, tm := range m.teamMembers {
		if tm.TeamID != teamID {
			continue
		}
		if u, ok := m.users[tm.UserID]; ok {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (m *MemoryStore) IsTeamMember(ctx context.Context, teamID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.teamMembers[memberKey(teamID, userID)]
	return ok, nil
}

func (m *MemoryStore) AddTeamMember(ctx context.Context, member *models.TeamMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memberKey(member.TeamID, member.UserID)
	if _, ok := m.teamMembers[key]; ok {
		return nil
	}
	ensureID(&member.ID)
	m.teamMembers[key] = *member
	return nil
}

func (m *MemoryStore) RemoveTeamMember(ctx context.Context, teamID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memberKey(teamID, userID)
	_, ok := m.teamMembers[key]
	delete(m.teamMembers, key)
	return ok, nil
}

func (m *MemoryStore) ReplaceTeamMembers(ctx context.Context, teamID string, userIDs []string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, tm := range m.teamMembers {
		if tm.TeamID == teamID {
			delete(m.teamMembers, key)
		}
	}
	for _, userID := range userIDs {
		if _, ok := m.users[userID]; !ok {
			continue
		}
		m.teamMembers[memberKey(teamID, userID)] = models.TeamMember{
			ID: uuid.New().String(), TeamID: teamID, UserID: userID, CreatedAt: now,
		}
	}
	return nil
}

// Settings

func (m *MemoryStore) ListSettings(ctx context.Context) ([]models.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	settings := make([]models.Setting, 0, len(m.settings))
	for _, s := range m.settings {
		settings = append(settings, s)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}

func (m *MemoryStore) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.settings[key]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *MemoryStore) CreateSetting(ctx context.Context, setting *models.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.settings[setting.Key]; ok {
		return repository.ErrDuplicate
	}
	ensureID(&setting.ID)
	m.settings[setting.Key] = *setting
	return nil
}

func (m *MemoryStore) UpsertSetting(ctx context.Context, setting *models.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.settings[setting.Key]; ok {
		setting.ID = existing.ID
		if setting.Description == nil {
			setting.Description = existing.Description
		}
	}
	ensureID(&setting.ID)
	m.settings[setting.Key] = *setting
	return nil
}

func (m *MemoryStore) DeleteSetting(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.settings[key]
	delete(m.settings, key)
	return ok, nil
}

func (m *MemoryStore) GetKPIProfile(ctx context.Context, subject string) (*models.KPIProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.kpiProfiles[subject]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *MemoryStore) SaveKPIProfile(ctx context.Context, profile *models.KPIProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kpiProfiles[profile.Subject] = *profile
	return nil
}

func (m *MemoryStore) GetKPISetCollection(ctx context.Context, scope string) (*models.KPISetCollection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.kpiSets[scope]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *MemoryStore) SaveKPISetCollection(ctx context.Context, collection *models.KPISetCollection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kpiSets[collection.Scope] = *collection
	return nil
}

// Diagrams and headcount

func (m *MemoryStore) ListDiagrams(ctx context.Context) ([]models.Diagram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	diagrams := make([]models.Diagram, 0, len(m.diagrams))
	for _, d := range m.diagrams {
		diagrams = append(diagrams, d)
	}
	sort.Slice(diagrams, func(i, j int) bool { return diagrams[i].UpdatedAt.After(diagrams[j].UpdatedAt) })
	return diagrams, nil
}

func (m *MemoryStore) GetDiagram(ctx context.Context, id string) (*models.Diagram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.diagrams[id]; ok {
		return &d, nil
	}
	return nil, nil
}

func (m *MemoryStore) CreateDiagram(ctx context.Context, diagram *models.Diagram) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&diagram.ID)
	m.diagrams[diagram.ID] = *diagram
	return nil
}

func (m *MemoryStore) UpdateDiagram(ctx context.Context, diagram *models.Diagram) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.diagrams[diagram.ID] = *diagram
	return nil
}

func (m *MemoryStore) DeleteDiagram(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.diagrams[id]
	delete(m.diagrams, id)
	return ok, nil
}

func (m *MemoryStore) ListDraftHeadcount(ctx context.Context) ([]models.DraftHeadcount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]models.DraftHeadcount, 0, len(m.headcount))
	for _, d := range m.headcount {
		items = append(items, d)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (m *MemoryStore) GetDraftHeadcount(ctx context.Context, id string) (*models.DraftHeadcount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.headcount[id]; ok {
		return &d, nil
	}
	return nil, nil
}

func (m *MemoryStore) CreateDraftHeadcount(ctx context.Context, d *models.DraftHeadcount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&d.ID)
	m.headcount[d.ID] = *d
	return nil
}

func (m *MemoryStore) UpdateDraftHeadcount(ctx context.Context, d *models.DraftHeadcount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headcount[d.ID] = *d
	return nil
}

func (m *MemoryStore) DeleteDraftHeadcount(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.headcount[id]
	delete(m.headcount, id)
	return ok, nil
}

// Leave

func (m *MemoryStore) ListLeaveRequests(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	requests := []models.LeaveRequest{}
	for _, r := range m.leaveRequests {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		requests = append(requests, r)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].RequestedDate.After(requests[j].RequestedDate)
	})
	return requests, nil
}

func (m *MemoryStore) GetLeaveRequest(ctx context.Context, id string) (*models.LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.leaveRequests[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *MemoryStore) ListLeaveBalances(ctx context.Context) ([]models.LeaveBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balances := make([]models.LeaveBalance, 0, len(m.leaveBalances))
	for _, b := range m.leaveBalances {
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].UserName < balances[j].UserName })
	return balances, nil
}

func (m *MemoryStore) GetLeaveBalance(ctx context.Context, userID string) (*models.LeaveBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.leaveBalances[userID]; ok {
		return &b, nil
	}
	return nil, nil
}

// DeleteLeaveBalance removes a user's balance row
func (m *MemoryStore) DeleteLeaveBalance(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.leaveBalances, userID)
}

// WithLeaveTx holds the store lock for the whole of fn and restores the
// leave tables when fn fails.
func (m *MemoryStore) WithLeaveTx(ctx context.Context, fn func(tx repository.LeaveTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	requests := make(map[string]models.LeaveRequest, len(m.leaveRequests))
	for k, v := range m.leaveRequests {
		requests[k] = v
	}
	balances := make(map[string]models.LeaveBalance, len(m.leaveBalances))
	for k, v := range m.leaveBalances {
		balances[k] = v
	}

	if err := fn(&memoryLeaveTx{m: m}); err != nil {
		m.leaveRequests = requests
		m.leaveBalances = balances
		return err
	}
	return nil
}

// memoryLeaveTx runs with MemoryStore.mu already held
type memoryLeaveTx struct {
	m *MemoryStore
}

func (t *memoryLeaveTx) CreateLeaveRequest(req *models.LeaveRequest) error {
	ensureID(&req.ID)
	t.m.leaveRequests[req.ID] = *req
	return nil
}

func (t *memoryLeaveTx) LockLeaveRequest(id string) (*models.LeaveRequest, error) {
	if r, ok := t.m.leaveRequests[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (t *memoryLeaveTx) UpdateLeaveRequest(req *models.LeaveRequest) error {
	t.m.leaveRequests[req.ID] = *req
	return nil
}

func (t *memoryLeaveTx) DeleteLeaveRequest(id string) error {
	delete(t.m.leaveRequests, id)
	return nil
}

func (t *memoryLeaveTx) EnsureLeaveBalance(balance *models.LeaveBalance) error {
	if _, ok := t.m.leaveBalances[balance.UserID]; ok {
		return nil
	}
	ensureID(&balance.ID)
	t.m.leaveBalances[balance.UserID] = *balance
	return nil
}

func (t *memoryLeaveTx) LockLeaveBalance(userID string) (*models.LeaveBalance, error) {
	if b, ok := t.m.leaveBalances[userID]; ok {
		return &b, nil
	}
	return nil, nil
}

func (t *memoryLeaveTx) UpdateLeaveBalance(balance *models.LeaveBalance) error {
	t.m.leaveBalances[balance.UserID] = *balance
	return nil
}

// Guest trials

func (m *MemoryStore) CountActiveGuestTrialsByIP(ctx context.Context, ip string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, g := range m.guestTrials {
		if g.IPAddress != nil && *g.IPAddress == ip && g.ExpiresAt.After(now) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateGuestTrial(ctx context.Context, trial *models.GuestTrial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.guestTrials {
		if g.SessionID == trial.SessionID {
			return repository.ErrDuplicate
		}
	}
	ensureID(&trial.ID)
	m.guestTrials[trial.ID] = *trial
	return nil
}

func (m *MemoryStore) GetGuestTrialBySession(ctx context.Context, sessionID string) (*models.GuestTrial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.guestTrials {
		if g.SessionID == sessionID {
			return &g, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) RecordGuestTranslation(ctx context.Context, trialID string, now time.Time, entry *models.GuestTranslationLog) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.guestTrials[trialID]
	if !ok || g.UsageCount >= g.MaxUses || !now.Before(g.ExpiresAt) {
		return false, nil
	}
	g.UsageCount++
	g.LastUsedAt = &now
	m.guestTrials[trialID] = g

	ensureID(&entry.ID)
	m.guestLogs = append(m.guestLogs, *entry)
	return true, nil
}

func (m *MemoryStore) GetGuestTrialStats(ctx context.Context, now time.Time) (*models.GuestTrialStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.GuestTrialStats{
		TotalGuests:        len(m.guestTrials),
		TotalTranslations:  len(m.guestLogs),
		TopTranslatedTexts: []models.TextCount{},
	}
	for _, g := range m.guestTrials {
		if g.ExpiresAt.After(now) {
			stats.ActiveGuests++
		}
	}

	counts := map[string]int{}
	dayAgo := now.Add(-24 * time.Hour)
	for _, l := range m.guestLogs {
		if !l.CreatedAt.Before(dayAgo) {
			stats.TranslationsToday++
		}
		counts[l.OriginalText]++
	}
	for text, n := range counts {
		stats.TopTranslatedTexts = append(stats.TopTranslatedTexts, models.TextCount{Text: text, Count: n})
	}
	sort.Slice(stats.TopTranslatedTexts, func(i, j int) bool {
		a, b := stats.TopTranslatedTexts[i], stats.TopTranslatedTexts[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Text < b.Text
	})
	if len(stats.TopTranslatedTexts) > 10 {
		stats.TopTranslatedTexts = stats.TopTranslatedTexts[:10]
	}
	return stats, nil
}

func (m *MemoryStore) ListGuestTrials(ctx context.Context, filter models.GuestTrialFilter) ([]models.GuestTrial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trials := []models.GuestTrial{}
	for _, g := range m.guestTrials {
		if filter.ActiveOnly && !g.ExpiresAt.After(filter.Now) {
			continue
		}
		trials = append(trials, g)
	}
	sort.Slice(trials, func(i, j int) bool { return trials[i].CreatedAt.After(trials[j].CreatedAt) })
	return page(trials, filter.Skip, filter.Limit), nil
}

func (m *MemoryStore) ListGuestTranslationLogs(ctx context.Context, filter models.GuestTranslationFilter) ([]models.GuestTranslationLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	logs := []models.GuestTranslationLog{}
	for _, l := range m.guestLogs {
		if strings.HasPrefix(l.SessionID, filter.SessionIDPrefix) {
			logs = append(logs, l)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })
	return page(logs, filter.Skip, filter.Limit), nil
}

// Bookmarks and collections

func (m *MemoryStore) ListBookmarks(ctx context.Context, userID string) ([]models.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bookmarks := []models.Bookmark{}
	for _, b := range m.bookmarks {
		if b.UserID != nil && *b.UserID == userID {
			bookmarks = append(bookmarks, b)
		}
	}
	sort.Slice(bookmarks, func(i, j int) bool { return bookmarks[i].CreatedAt.After(bookmarks[j].CreatedAt) })
	return bookmarks, nil
}

func (m *MemoryStore) GetBookmark(ctx context.Context, id string) (*models.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookmarks[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (m *MemoryStore) CreateBookmark(ctx context.Context, b *models.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&b.ID)
	m.bookmarks[b.ID] = *b
	return nil
}

func (m *MemoryStore) UpdateBookmark(ctx context.Context, b *models.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookmarks[b.ID] = *b
	return nil
}

func (m *MemoryStore) DeleteBookmark(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bookmarks[id]
	delete(m.bookmarks, id)
	return ok, nil
}

func (m *MemoryStore) ListCollections(ctx context.Context, userID string) ([]models.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	collections := []models.Collection{}
	for _, c := range m.collections {
		if _, ok := m.collectionMems[memberKey(c.ID, userID)]; ok {
			collections = append(collections, c)
		}
	}
	sort.Slice(collections, func(i, j int) bool { return collections[i].Name < collections[j].Name })
	return collections, nil
}

func (m *MemoryStore) GetCollectionByName(ctx context.Context, name string) (*models.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.collections {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateCollection(ctx context.Context, c *models.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.collections {
		if existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	ensureID(&c.ID)
	m.collections[c.ID] = *c

	if c.OwnerID != nil {
		m.collectionMems[memberKey(c.ID, *c.OwnerID)] = models.CollectionMember{
			ID:           uuid.New().String(),
			CollectionID: c.ID,
			UserID:       *c.OwnerID,
			Role:         models.CollectionRoleOwner,
			CreatedAt:    c.CreatedAt,
		}
	}
	return nil
}

func (m *MemoryStore) DeleteCollection(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, id)
	for key, cm := range m.collectionMems {
		if cm.CollectionID == id {
			delete(m.collectionMems, key)
		}
	}
	return nil
}

// withUsername fills the joined users.name column
func (m *MemoryStore) withUsername(cm models.CollectionMember) models.CollectionMember {
	if u, ok := m.users[cm.UserID]; ok {
		cm.Username = u.Name
	}
	return cm
}

func (m *MemoryStore) ListCollectionMembers(ctx context.Context, collectionID string) ([]models.CollectionMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := []models.CollectionMember{}
	for _, cm := range m.collectionMems {
		if cm.CollectionID == collectionID {
			members = append(members, m.withUsername(cm))
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.Before(members[j].CreatedAt) })
	return members, nil
}

func (m *MemoryStore) GetCollectionMember(ctx context.Context, collectionID, userID string) (*models.CollectionMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cm, ok := m.collectionMems[memberKey(collectionID, userID)]; ok {
		cm = m.withUsername(cm)
		return &cm, nil
	}
	return nil, nil
}

func (m *MemoryStore) AddCollectionMember(ctx context.Context, cm *models.CollectionMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memberKey(cm.CollectionID, cm.UserID)
	if _, ok := m.collectionMems[key]; ok {
		return repository.ErrDuplicate
	}
	ensureID(&cm.ID)
	m.collectionMems[key] = *cm
	return nil
}

func (m *MemoryStore) RemoveCollectionMember(ctx context.Context, collectionID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memberKey(collectionID, userID)
	_, ok := m.collectionMems[key]
	delete(m.collectionMems, key)
	return ok, nil
}

// Subscription

func (m *MemoryStore) ListPublicPlans(ctx context.Context) ([]models.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plans := []models.Plan{}
	for _, p := range m.plans {
		if p.IsActive && p.IsPublic {
			plans = append(plans, p)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].SortOrder < plans[j].SortOrder })
	return plans, nil
}

func (m *MemoryStore) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.plans[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *MemoryStore) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tenants[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (m *MemoryStore) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[tenant.ID] = *tenant
	return nil
}

func (m *MemoryStore) GetTenantUsage(ctx context.Context, tenantID string) (*models.TenantUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	usage := &models.TenantUsage{}
	for _, u := range m.users {
		if u.TenantID != nil && *u.TenantID == tenantID {
			usage.Users++
		}
	}
	for _, t := range m.tasks {
		if t.TenantID != nil && *t.TenantID == tenantID {
			usage.Tasks++
		}
	}
	for _, t := range m.teams {
		if t.TenantID != nil && *t.TenantID == tenantID {
			usage.Teams++
		}
	}
	return usage, nil
}

func (m *MemoryStore) ListAIKeys(ctx context.Context, tenantID string) ([]models.AIProviderKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := []models.AIProviderKey{}
	for _, k := range m.aiKeys {
		if k.TenantID == tenantID {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].CreatedAt.After(keys[j].CreatedAt) })
	return keys, nil
}

func (m *MemoryStore) GetAIKey(ctx context.Context, id string) (*models.AIProviderKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.aiKeys[id]; ok {
		return &k, nil
	}
	return nil, nil
}

func (m *MemoryStore) GetActiveAIKey(ctx context.Context, tenantID, provider string) (*models.AIProviderKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.AIProviderKey
	for _, k := range m.aiKeys {
		k := k
		if k.TenantID != tenantID || k.Provider != provider || !k.IsActive {
			continue
		}
		if latest == nil || k.CreatedAt.After(latest.CreatedAt) {
			latest = &k
		}
	}
	return latest, nil
}

func (m *MemoryStore) CreateAIKey(ctx context.Context, key *models.AIProviderKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&key.ID)
	m.aiKeys[key.ID] = *key
	return nil
}

func (m *MemoryStore) UpdateAIKey(ctx context.Context, key *models.AIProviderKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aiKeys[key.ID] = *key
	return nil
}

func (m *MemoryStore) DeleteAIKey(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.aiKeys[id]
	delete(m.aiKeys, id)
	return ok, nil
}

func (m *MemoryStore) TouchAIKey(ctx context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.aiKeys[id]; ok {
		k.UsageCount++
		k.LastUsedAt = &now
		m.aiKeys[id] = k
	}
	return nil
}

func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
