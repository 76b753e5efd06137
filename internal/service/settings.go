package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

// Settings serves the per-user daily goals. A user who never saved
// goals gets the defaults, persisted on first read so later updates
// always patch an existing record.
type Settings struct {
	settingsStore model.SettingsStore
	broadcaster   model.Broadcaster
	logger        *logger.Logger
}

func NewSettings(
	settingsStore model.SettingsStore,
	broadcaster model.Broadcaster,
	logger *logger.Logger,
) *Settings {
	return &Settings{
		settingsStore: settingsStore,
		broadcaster:   broadcaster,
		logger:        logger,
	}
}

func (s *Settings) GetSettings(ctx context.Context, userID uuid.UUID) (model.Settings, error) {
	settings, err := s.settingsStore.GetByUserID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		settings, err = s.settingsStore.Save(ctx, userID, model.DefaultSettings())
		if err != nil {
			return model.Settings{}, fmt.Errorf("failed to save default settings: %w", err)
		}
		s.logger.Info("Settings service: defaults created",
			"user_id", userID)
		return settings, nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	return settings, nil
}

func (s *Settings) UpdateSettings(ctx context.Context, userID uuid.UUID, patch model.SettingsPatch) (model.Settings, error) {
	if patch.Empty() {
		verr := &model.ValidationError{}
		verr.Add("patch", "at least one field must be set")
		return model.Settings{}, verr
	}
	if err := patch.Validate(); err != nil {
		return model.Settings{}, err
	}

	current, err := s.GetSettings(ctx, userID)
	if err != nil {
		return model.Settings{}, err
	}

	saved, err := s.settingsStore.Save(ctx, userID, patch.Apply(current))
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	s.broadcaster.Broadcast(userID, model.SettingsChanged(saved))

	s.logger.Info("Settings service: goals updated",
		"user_id", userID,
		"daily_calories", saved.DailyCalories,
		"daily_protein", saved.DailyProtein)

	return saved, nil
}
