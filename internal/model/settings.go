package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Default daily goals, applied when a user has no stored settings yet.
const (
	DefaultDailyCalories = 2000
	DefaultDailyProtein  = 150.0
)

// SettingsStore defines persistence operations for the per-user
// settings record.
type SettingsStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (Settings, error)
	Save(ctx context.Context, userID uuid.UUID, settings Settings) (Settings, error)
}

// Settings is the singleton daily-goal configuration. Exactly one
// record exists per user; it is created with defaults at first use and
// only updated afterwards.
type Settings struct {
	DailyCalories int       `json:"daily_calories"`
	DailyProtein  float64   `json:"daily_protein"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DefaultSettings returns settings carrying the default goals.
func DefaultSettings() Settings {
	return Settings{
		DailyCalories: DefaultDailyCalories,
		DailyProtein:  DefaultDailyProtein,
	}
}

// SettingsPatch contains a partial update of the daily goals.
type SettingsPatch struct {
	DailyCalories *int     `json:"daily_calories,omitempty"`
	DailyProtein  *float64 `json:"daily_protein,omitempty"`
}

// Validate rejects non-positive goals.
func (p SettingsPatch) Validate() error {
	v := &ValidationError{}
	if p.DailyCalories != nil && *p.DailyCalories <= 0 {
		v.Add("daily_calories", "must be positive")
	}
	if p.DailyProtein != nil && *p.DailyProtein <= 0 {
		v.Add("daily_protein", "must be positive")
	}
	if v.Empty() {
		return nil
	}
	return v
}

// Apply merges the set fields of the patch into the settings and
// returns the result.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.DailyCalories != nil {
		s.DailyCalories = *p.DailyCalories
	}
	if p.DailyProtein != nil {
		s.DailyProtein = *p.DailyProtein
	}
	return s
}

// Empty reports whether no field of the patch is set.
func (p SettingsPatch) Empty() bool {
	return p.DailyCalories == nil && p.DailyProtein == nil
}
