package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/repository"
	"github.com/planning-tool/planner-server/internal/translate"
	"github.com/sirupsen/logrus"
)

const (
	languageThai    = "Thai"
	languageEnglish = "English"
)

// GuestService runs the anonymous translation trial
type GuestService interface {
	CreateGuestSession(ctx context.Context, ip string) (*models.GuestLoginResponse, error)
	GuestTranslate(ctx context.Context, sessionID, text, ip string) (*models.GuestTranslateResponse, error)
	GuestStatus(ctx context.Context, sessionID string) (*models.GuestStatusResponse, error)

	GuestStats(ctx context.Context) (*models.GuestTrialStats, error)
	ListGuestTrials(ctx context.Context, filter models.GuestTrialFilter) ([]models.GuestTrialSummary, error)
	ListGuestTranslations(ctx context.Context, filter models.GuestTranslationFilter) ([]models.GuestTranslationLog, error)
}

// CreateGuestSession issues a new trial unless the address already holds
// the maximum number of unexpired sessions.
func (s *DefaultService) CreateGuestSession(ctx context.Context, ip string) (*models.GuestLoginResponse, error) {
	now := s.clock.Now()

	if ip != "" {
		active, err := s.repo.CountActiveGuestTrialsByIP(ctx, ip, now)
		if err != nil {
			return nil, fmt.Errorf("error counting guest sessions: %w", err)
		}
		if active >= s.guest.MaxSessionsPerIP {
			return nil, fmt.Errorf("%w: too many guest sessions from this IP. Please try again later", ErrRateLimited)
		}
	}

	sessionID, err := newSessionID()
	if err != nil {
		return nil, fmt.Errorf("error generating session id: %w", err)
	}

	trial := &models.GuestTrial{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Username:   "Guest_" + strings.ToUpper(sessionID[:8]),
		UsageCount: 0,
		MaxUses:    s.guest.MaxUses,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.guest.SessionTTL),
	}
	if ip != "" {
		trial.IPAddress = &ip
	}

	if err := s.repo.CreateGuestTrial(ctx, trial); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: session already exists", ErrConflict)
		}
		return nil, fmt.Errorf("error creating guest session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"guest":      trial.Username,
		"ip":         ip,
		"expires_at": trial.ExpiresAt,
	}).Info("guest session created")

	return &models.GuestLoginResponse{
		SessionID:     trial.SessionID,
		Username:      trial.Username,
		MaxUses:       trial.MaxUses,
		RemainingUses: trial.RemainingUses(),
		ExpiresAt:     trial.ExpiresAt,
		Message:       fmt.Sprintf("Welcome! You have %d free translations.", trial.MaxUses),
	}, nil
}

// GuestTranslate consumes one use of the session for a genuine Thai
// translation. Text without Thai characters is echoed back for free and a
// failed provider call does not count.
func (s *DefaultService) GuestTranslate(ctx context.Context, sessionID, text, ip string) (*models.GuestTranslateResponse, error) {
	trial, err := s.repo.GetGuestTrialBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error getting guest session: %w", err)
	}
	if trial == nil {
		return nil, fmt.Errorf("%w: guest session not found", ErrNotFound)
	}

	now := s.clock.Now()
	if trial.Expired(now) {
		return nil, fmt.Errorf("%w: Guest session has expired. Please start a new session.", ErrForbidden)
	}
	if trial.Exhausted() {
		return nil, fmt.Errorf("%w: Translation limit reached. Please register for unlimited access.", ErrForbidden)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}

	if !translate.ContainsThai(text) {
		return &models.GuestTranslateResponse{
			OriginalText:     text,
			TranslatedText:   text,
			DetectedLanguage: languageEnglish,
			TargetLanguage:   languageEnglish,
			RemainingUses:    trial.RemainingUses(),
			UsageCount:       trial.UsageCount,
		}, nil
	}

	if s.translator == nil {
		return nil, fmt.Errorf("%w: translation service is not configured", ErrUnavailable)
	}
	apiKey, err := s.ResolveProviderKey(ctx, s.guest.SystemTenantID, models.ProviderOpenAI)
	if err != nil {
		return nil, err
	}

	translated, err := s.translator.Translate(ctx, apiKey, text)
	if err != nil {
		s.logger.WithError(err).WithField("guest", trial.Username).Error("guest translation failed")
		return nil, fmt.Errorf("%w: translation failed", ErrUpstream)
	}

	// the provider call may have outlived the session
	now = s.clock.Now()
	detected := languageThai
	entry := &models.GuestTranslationLog{
		ID:               uuid.New().String(),
		GuestTrialID:     &trial.ID,
		SessionID:        trial.SessionID,
		OriginalText:     text,
		TranslatedText:   &translated,
		DetectedLanguage: &detected,
		CreatedAt:        now,
	}
	if ip != "" {
		entry.IPAddress = &ip
	}

	applied, err := s.repo.RecordGuestTranslation(ctx, trial.ID, now, entry)
	if err != nil {
		return nil, fmt.Errorf("error recording guest translation: %w", err)
	}
	if !applied {
		if trial.Expired(now) {
			return nil, fmt.Errorf("%w: Guest session has expired. Please start a new session.", ErrForbidden)
		}
		// a concurrent call used the last translation first
		return nil, fmt.Errorf("%w: Translation limit reached. Please register for unlimited access.", ErrForbidden)
	}
	trial.UsageCount++

	return &models.GuestTranslateResponse{
		OriginalText:     text,
		TranslatedText:   translated,
		DetectedLanguage: languageThai,
		TargetLanguage:   languageEnglish,
		RemainingUses:    trial.RemainingUses(),
		UsageCount:       trial.UsageCount,
	}, nil
}

func (s *DefaultService) GuestStatus(ctx context.Context, sessionID string) (*models.GuestStatusResponse, error) {
	trial, err := s.repo.GetGuestTrialBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error getting guest session: %w", err)
	}
	if trial == nil {
		return nil, fmt.Errorf("%w: guest session not found", ErrNotFound)
	}

	now := s.clock.Now()
	return &models.GuestStatusResponse{
		SessionID:     trial.SessionID,
		Username:      trial.Username,
		UsageCount:    trial.UsageCount,
		MaxUses:       trial.MaxUses,
		RemainingUses: trial.RemainingUses(),
		ExpiresAt:     trial.ExpiresAt,
		IsExpired:     trial.Expired(now),
		IsActive:      trial.Usable(now),
	}, nil
}

// Admin views

func (s *DefaultService) GuestStats(ctx context.Context) (*models.GuestTrialStats, error) {
	stats, err := s.repo.GetGuestTrialStats(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("error getting guest stats: %w", err)
	}
	return stats, nil
}

func (s *DefaultService) ListGuestTrials(ctx context.Context, filter models.GuestTrialFilter) ([]models.GuestTrialSummary, error) {
	normalizePage(&filter.Skip, &filter.Limit)
	filter.Now = s.clock.Now()

	trials, err := s.repo.ListGuestTrials(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing guest trials: %w", err)
	}

	out := make([]models.GuestTrialSummary, 0, len(trials))
	for i := range trials {
		t := &trials[i]
		out = append(out, models.GuestTrialSummary{
			ID:            t.ID,
			SessionID:     MaskSessionID(t.SessionID),
			Username:      t.Username,
			IPAddress:     t.IPAddress,
			UsageCount:    t.UsageCount,
			MaxUses:       t.MaxUses,
			RemainingUses: t.RemainingUses(),
			CreatedAt:     t.CreatedAt,
			ExpiresAt:     t.ExpiresAt,
			LastUsedAt:    t.LastUsedAt,
			IsExpired:     t.Expired(filter.Now),
		})
	}
	return out, nil
}

func (s *DefaultService) ListGuestTranslations(ctx context.Context, filter models.GuestTranslationFilter) ([]models.GuestTranslationLog, error) {
	normalizePage(&filter.Skip, &filter.Limit)

	logs, err := s.repo.ListGuestTranslationLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing guest translations: %w", err)
	}
	for i := range logs {
		logs[i].SessionID = MaskSessionID(logs[i].SessionID)
	}
	return logs, nil
}

// MaskSessionID keeps the first 16 characters of a bearer session id
func MaskSessionID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:16] + "..."
}

// newSessionID returns 32 random bytes as hex
func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func normalizePage(skip, limit *int) {
	if *skip < 0 {
		*skip = 0
	}
	if *limit <= 0 || *limit > 500 {
		*limit = 100
	}
}
