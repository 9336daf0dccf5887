package models

import "time"

// GuestTrial is an anonymous, time and count limited translation session.
// The session id is also the bearer credential.
type GuestTrial struct {
	ID         string     `db:"id" json:"id"`
	SessionID  string     `db:"session_id" json:"session_id"`
	IPAddress  *string    `db:"ip_address" json:"ip_address"`
	Username   string     `db:"username" json:"username"`
	UsageCount int        `db:"usage_count" json:"usage_count"`
	MaxUses    int        `db:"max_uses" json:"max_uses"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at"`
}

// Expired reports whether the session's lifetime has ended at now
func (g *GuestTrial) Expired(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}

// Exhausted reports whether the session has used up its quota
func (g *GuestTrial) Exhausted() bool {
	return g.UsageCount >= g.MaxUses
}

// Usable reports whether the session may still consume quota at now
func (g *GuestTrial) Usable(now time.Time) bool {
	return !g.Expired(now) && !g.Exhausted()
}

// RemainingUses never goes below zero
func (g *GuestTrial) RemainingUses() int {
	if g.UsageCount >= g.MaxUses {
		return 0
	}
	return g.MaxUses - g.UsageCount
}

// GuestTranslationLog is the append-only audit row of a successful translation
type GuestTranslationLog struct {
	ID               string    `db:"id" json:"id"`
	GuestTrialID     *string   `db:"guest_trial_id" json:"guest_trial_id"`
	SessionID        string    `db:"session_id" json:"session_id"`
	OriginalText     string    `db:"original_text" json:"original_text"`
	TranslatedText   *string   `db:"translated_text" json:"translated_text"`
	DetectedLanguage *string   `db:"detected_language" json:"detected_language"`
	IPAddress        *string   `db:"ip_address" json:"ip_address"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// TextCount is an aggregated count of an original text
type TextCount struct {
	Text  string `db:"text" json:"text"`
	Count int    `db:"count" json:"count"`
}

// GuestTrialStats summarises guest usage for administrators
type GuestTrialStats struct {
	TotalGuests        int         `json:"total_guests"`
	ActiveGuests       int         `json:"active_guests"`
	TotalTranslations  int         `json:"total_translations"`
	TranslationsToday  int         `json:"translations_today"`
	TopTranslatedTexts []TextCount `json:"top_translated_texts"`
}

// GuestTrialFilter narrows the admin trial listing
type GuestTrialFilter struct {
	Skip       int
	Limit      int
	ActiveOnly bool
	Now        time.Time
}

// GuestTranslationFilter narrows the admin translation log listing
type GuestTranslationFilter struct {
	Skip            int
	Limit           int
	SessionIDPrefix string
}
