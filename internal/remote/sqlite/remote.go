// Package sqlite is an embedded implementation of the backend
// contract: meals and settings live in a local SQLite file and change
// events fan out to in-process subscribers. It backs the CLI's offline
// mode.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

var _ model.Remote = (*Remote)(nil)

// Remote stores meals and the settings record in SQLite. Constraint
// checks live in the schema, mirroring what a hosted backend would
// enforce server side. Every successful mutation is echoed to all
// subscribers, the originating session included.
type Remote struct {
	db     *sql.DB
	logger *logger.Logger

	mu     sync.Mutex
	subs   map[int]chan model.Event
	nextID int
}

// Open opens or creates the database at the given path and applies the
// schema.
func Open(path string, logger *logger.Logger) (*Remote, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	r := New(db, logger)
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

// New wraps an existing database handle without touching the schema.
func New(db *sql.DB, logger *logger.Logger) *Remote {
	return &Remote{
		db:     db,
		logger: logger,
		subs:   make(map[int]chan model.Event),
	}
}

func (r *Remote) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meals (
		id         TEXT PRIMARY KEY,
		date       TEXT NOT NULL,
		time       TEXT NOT NULL,
		food_name  TEXT NOT NULL CHECK (food_name <> ''),
		amount     TEXT NOT NULL,
		calories   INTEGER NOT NULL CHECK (calories >= 0),
		protein    REAL NOT NULL CHECK (protein >= 0),
		photo_url  TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_meals_date ON meals(date);

	CREATE TABLE IF NOT EXISTS settings (
		id             INTEGER PRIMARY KEY CHECK (id = 1),
		daily_calories INTEGER NOT NULL CHECK (daily_calories > 0),
		daily_protein  REAL NOT NULL CHECK (daily_protein > 0),
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Close drops all subscriptions and closes the database.
func (r *Remote) Close() error {
	r.mu.Lock()
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
	r.mu.Unlock()
	return r.db.Close()
}

func (r *Remote) CreateMeal(ctx context.Context, draft model.MealDraft) (model.Meal, error) {
	// Truncate to the stored RFC3339 precision so the returned record
	// matches what a later read sees.
	now := time.Now().UTC().Truncate(time.Second)
	meal := draft.Meal()
	meal.ID = uuid.NewString()
	meal.CreatedAt = now
	meal.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meals (id, date, time, food_name, amount, calories, protein, photo_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meal.ID, meal.Date, meal.Time, meal.FoodName, meal.Amount, meal.Calories, meal.Protein,
		meal.PhotoURL, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return model.Meal{}, fmt.Errorf("insert meal: %w", err)
	}

	r.publish(model.MealInserted(meal))
	return meal, nil
}

func (r *Remote) UpdateMeal(ctx context.Context, id string, patch model.MealPatch) (model.Meal, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	add := func(col string, val any) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
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
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		"UPDATE meals SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return model.Meal{}, fmt.Errorf("update meal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Meal{}, fmt.Errorf("update meal: %w", err)
	}
	if affected == 0 {
		return model.Meal{}, model.ErrNotFound
	}

	meal, err := r.getMeal(ctx, id)
	if err != nil {
		return model.Meal{}, err
	}

	r.publish(model.MealUpdated(meal))
	return meal, nil
}

func (r *Remote) DeleteMeal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM meals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}

	r.publish(model.MealDeleted(id))
	return nil
}

func (r *Remote) ListMeals(ctx context.Context) ([]model.Meal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, time, food_name, amount, calories, protein, photo_url, created_at, updated_at
		 FROM meals ORDER BY date DESC, time DESC`)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	var meals []model.Meal
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		meals = append(meals, meal)
	}
	return meals, rows.Err()
}

func (r *Remote) GetSettings(ctx context.Context) (model.Settings, error) {
	settings, err := r.readSettings(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return r.initSettings(ctx)
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

func (r *Remote) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	// The row must exist before an update can land on it.
	if _, err := r.GetSettings(ctx); err != nil {
		return model.Settings{}, err
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339)}
	if patch.DailyCalories != nil {
		sets = append(sets, "daily_calories = ?")
		args = append(args, *patch.DailyCalories)
	}
	if patch.DailyProtein != nil {
		sets = append(sets, "daily_protein = ?")
		args = append(args, *patch.DailyProtein)
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE settings SET "+strings.Join(sets, ", ")+" WHERE id = 1", args...)
	if err != nil {
		return model.Settings{}, fmt.Errorf("update settings: %w", err)
	}

	settings, err := r.readSettings(ctx)
	if err != nil {
		return model.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	r.publish(model.SettingsChanged(settings))
	return settings, nil
}

// Subscribe registers an event channel. The channel is closed after
// stop is called or ctx is done; a subscriber that stops draining has
// events dropped rather than blocking writers.
func (r *Remote) Subscribe(ctx context.Context) (<-chan model.Event, func(), error) {
	ch := make(chan model.Event, 16)

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	r.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			r.mu.Lock()
			if _, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(ch)
			}
			r.mu.Unlock()
			close(done)
		})
	}

	// The watcher exits on stop as well, so an undying context does not
	// pin it.
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()

	return ch, stop, nil
}

func (r *Remote) publish(ev model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ch := range r.subs {
		select {
		case ch <- ev:
		default:
			r.logger.Debug("dropping event for slow subscriber", "subscriber", id, "op", ev.Op)
		}
	}
}

func (r *Remote) getMeal(ctx context.Context, id string) (model.Meal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, date, time, food_name, amount, calories, protein, photo_url, created_at, updated_at
		 FROM meals WHERE id = ?`, id)
	meal, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Meal{}, model.ErrNotFound
	}
	if err != nil {
		return model.Meal{}, fmt.Errorf("get meal: %w", err)
	}
	return meal, nil
}

func (r *Remote) readSettings(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	var createdAt, updatedAt string
	err := r.db.QueryRowContext(ctx,
		"SELECT daily_calories, daily_protein, created_at, updated_at FROM settings WHERE id = 1").
		Scan(&s.DailyCalories, &s.DailyProtein, &createdAt, &updatedAt)
	if err != nil {
		return model.Settings{}, err
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return s, nil
}

func (r *Remote) initSettings(ctx context.Context) (model.Settings, error) {
	now := time.Now().UTC().Truncate(time.Second)
	settings := model.DefaultSettings()
	settings.CreatedAt = now
	settings.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (id, daily_calories, daily_protein, created_at, updated_at)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		settings.DailyCalories, settings.DailyProtein,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return model.Settings{}, fmt.Errorf("init settings: %w", err)
	}

	settings, err = r.readSettings(ctx)
	if err != nil {
		return model.Settings{}, fmt.Errorf("init settings: %w", err)
	}
	return settings, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeal(row scanner) (model.Meal, error) {
	var m model.Meal
	var createdAt, updatedAt string
	err := row.Scan(&m.ID, &m.Date, &m.Time, &m.FoodName, &m.Amount,
		&m.Calories, &m.Protein, &m.PhotoURL, &createdAt, &updatedAt)
	if err != nil {
		return model.Meal{}, err
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return m, nil
}
