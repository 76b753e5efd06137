package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

var _ model.SettingsStore = (*SettingsRepository)(nil)

type SettingsRepository struct {
	db *Connection
}

func NewSettingsRepository(db *Connection) *SettingsRepository {
	return &SettingsRepository{
		db: db,
	}
}

func (r *SettingsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (model.Settings, error) {
	query := `
		SELECT daily_calories, daily_protein, created_at, updated_at
		FROM settings
		WHERE user_id = $1`

	var settings model.Settings
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&settings.DailyCalories, &settings.DailyProtein, &settings.CreatedAt, &settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Settings{}, model.ErrNotFound
		}
		return model.Settings{}, err
	}

	return settings, nil
}

// Save inserts the row on first write and overwrites it afterwards.
func (r *SettingsRepository) Save(ctx context.Context, userID uuid.UUID, settings model.Settings) (model.Settings, error) {
	query := `
		INSERT INTO settings (user_id, daily_calories, daily_protein)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET daily_calories = EXCLUDED.daily_calories,
		    daily_protein = EXCLUDED.daily_protein,
		    updated_at = NOW()
		RETURNING daily_calories, daily_protein, created_at, updated_at`

	var saved model.Settings
	err := r.db.QueryRow(ctx, query, userID, settings.DailyCalories, settings.DailyProtein).Scan(
		&saved.DailyCalories, &saved.DailyProtein, &saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		return model.Settings{}, err
	}

	return saved, nil
}
