package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

var _ model.MealStore = (*MealRepository)(nil)

type MealRepository struct {
	db *Connection
}

func NewMealRepository(db *Connection) *MealRepository {
	return &MealRepository{
		db: db,
	}
}

func (r *MealRepository) Create(ctx context.Context, userID uuid.UUID, meal model.Meal) (model.Meal, error) {
	query := `
		INSERT INTO meals (id, user_id, date, time, food_name, amount, calories, protein, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		meal.ID, userID, meal.Date, meal.Time, meal.FoodName, meal.Amount,
		meal.Calories, meal.Protein, meal.PhotoURL,
	).Scan(&meal.CreatedAt, &meal.UpdatedAt)
	if err != nil {
		return model.Meal{}, err
	}

	return meal, nil
}

func (r *MealRepository) GetByID(ctx context.Context, userID uuid.UUID, id string) (model.Meal, error) {
	query := `
		SELECT id, date, time, food_name, amount, calories, protein, photo_url, created_at, updated_at
		FROM meals
		WHERE id = $1 AND user_id = $2`

	var meal model.Meal
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&meal.ID, &meal.Date, &meal.Time, &meal.FoodName, &meal.Amount,
		&meal.Calories, &meal.Protein, &meal.PhotoURL, &meal.CreatedAt, &meal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Meal{}, model.ErrNotFound
		}
		return model.Meal{}, err
	}

	return meal, nil
}

func (r *MealRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.Meal, error) {
	query := `
		SELECT id, date, time, food_name, amount, calories, protein, photo_url, created_at, updated_at
		FROM meals
		WHERE user_id = $1
		ORDER BY date DESC, time DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meals []model.Meal
	for rows.Next() {
		var meal model.Meal
		err := rows.Scan(
			&meal.ID, &meal.Date, &meal.Time, &meal.FoodName, &meal.Amount,
			&meal.Calories, &meal.Protein, &meal.PhotoURL, &meal.CreatedAt, &meal.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		meals = append(meals, meal)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return meals, nil
}

func (r *MealRepository) GetByUserIDAndDate(ctx context.Context, userID uuid.UUID, date string) ([]model.Meal, error) {
	query := `
		SELECT id, date, time, food_name, amount, calories, protein, photo_url, created_at, updated_at
		FROM meals
		WHERE user_id = $1 AND date = $2
		ORDER BY time ASC`

	rows, err := r.db.Query(ctx, query, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meals []model.Meal
	for rows.Next() {
		var meal model.Meal
		err := rows.Scan(
			&meal.ID, &meal.Date, &meal.Time, &meal.FoodName, &meal.Amount,
			&meal.Calories, &meal.Protein, &meal.PhotoURL, &meal.CreatedAt, &meal.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		meals = append(meals, meal)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return meals, nil
}

func (r *MealRepository) GetByUserIDAndDateRange(ctx context.Context, userID uuid.UUID, from, to string) ([]model.Meal, error) {
	// ISO dates order lexicographically, so text comparison is enough.
	query := `
		SELECT id, date, time, food_name, amount, calories, protein, photo_url, created_at, updated_at
		FROM meals
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC, time ASC`

	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meals []model.Meal
	for rows.Next() {
		var meal model.Meal
		err := rows.Scan(
			&meal.ID, &meal.Date, &meal.Time, &meal.FoodName, &meal.Amount,
			&meal.Calories, &meal.Protein, &meal.PhotoURL, &meal.CreatedAt, &meal.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		meals = append(meals, meal)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return meals, nil
}

func (r *MealRepository) Update(ctx context.Context, userID uuid.UUID, id string, patch model.MealPatch) (model.Meal, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1

	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, val)
		n++
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.Time != nil {
		add("time", *patch.Time)
	}
	if patch.FoodName != nil {
		add("food_name", *patch.FoodName)
	}
	if patch.Amount != nil {
		add("amount", *patch.Amount)
	}
	if patch.Calories != nil {
		add("calories", *patch.Calories)
	}
	if patch.Protein != nil {
		add("protein", *patch.Protein)
	}
	if patch.PhotoURL != nil {
		add("photo_url", *patch.PhotoURL)
	}

	query := fmt.Sprintf(`
		UPDATE meals SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING id, date, time, food_name, amount, calories, protein, photo_url, created_at, updated_at`,
		strings.Join(sets, ", "), n, n+1)
	args = append(args, id, userID)

	var meal model.Meal
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&meal.ID, &meal.Date, &meal.Time, &meal.FoodName, &meal.Amount,
		&meal.Calories, &meal.Protein, &meal.PhotoURL, &meal.CreatedAt, &meal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Meal{}, model.ErrNotFound
		}
		return model.Meal{}, err
	}

	return meal, nil
}

func (r *MealRepository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	const query = `DELETE FROM meals WHERE id = $1 AND user_id = $2`
	cmd, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
