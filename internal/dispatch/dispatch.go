// Package dispatch is the action layer between consumers and the
// reconciled store: it validates input, calls the remote backend, and
// folds confirmed results into local state. State changes only after
// the backend confirms; a failed call leaves state exactly as it was.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
	"github.com/FilmThanapol/caloriemate-go/internal/store"
)

type Dispatcher struct {
	store  *store.Store
	remote model.Remote
	logger *logger.Logger
}

func New(store *store.Store, remote model.Remote, logger *logger.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		remote: remote,
		logger: logger,
	}
}

// AddMeal validates the draft, creates it remotely and applies the
// server-returned record, identifier and timestamps included.
func (d *Dispatcher) AddMeal(ctx context.Context, draft model.MealDraft) (model.Meal, error) {
	if err := draft.Validate(); err != nil {
		return model.Meal{}, err
	}

	meal, err := d.remote.CreateMeal(ctx, draft)
	if err != nil {
		return model.Meal{}, fmt.Errorf("failed to create meal: %w", err)
	}

	d.store.Dispatch(store.AddMeal(meal))
	d.logger.Debug("meal added", "id", meal.ID)
	return meal, nil
}

// UpdateMeal sends the changed fields to the backend and applies the
// confirmed record. Whether the identifier exists is the backend's
// call, not checked locally.
func (d *Dispatcher) UpdateMeal(ctx context.Context, id string, patch model.MealPatch) (model.Meal, error) {
	if patch.Empty() {
		v := &model.ValidationError{}
		v.Add("patch", "at least one field must be set")
		return model.Meal{}, v
	}
	if err := patch.Validate(); err != nil {
		return model.Meal{}, err
	}

	meal, err := d.remote.UpdateMeal(ctx, id, patch)
	if err != nil {
		return model.Meal{}, fmt.Errorf("failed to update meal: %w", err)
	}

	d.store.Dispatch(store.UpdateMeal(meal.ID, meal.Patch()))
	d.logger.Debug("meal updated", "id", meal.ID)
	return meal, nil
}

// DeleteMeal removes the meal remotely, then locally. Deleting the
// same identifier twice may fail at the backend; the store-side removal
// is a no-op either way.
func (d *Dispatcher) DeleteMeal(ctx context.Context, id string) error {
	if err := d.remote.DeleteMeal(ctx, id); err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}

	d.store.Dispatch(store.DeleteMeal(id))
	d.logger.Debug("meal deleted", "id", id)
	return nil
}

// UpdateSettings rejects non-positive goals before any network call,
// then applies the confirmed settings record.
func (d *Dispatcher) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	if patch.Empty() {
		v := &model.ValidationError{}
		v.Add("patch", "at least one field must be set")
		return model.Settings{}, v
	}
	if err := patch.Validate(); err != nil {
		return model.Settings{}, err
	}

	settings, err := d.remote.UpdateSettings(ctx, patch)
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to update settings: %w", err)
	}

	d.store.Dispatch(store.SetSettings(settings))
	d.logger.Debug("settings updated")
	return settings, nil
}

// Export serializes the full current state, meals plus settings plus
// an export timestamp, as indented JSON.
func (d *Dispatcher) Export() ([]byte, error) {
	state := d.store.State()
	doc := model.ExportDocument{
		ExportedAt: time.Now().UTC(),
		Meals:      state.Meals,
		Settings:   state.Settings,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}

// ImportIssue records one meal that could not be imported.
type ImportIssue struct {
	Index    int
	FoodName string
	Err      error
}

// ImportReport summarizes a best-effort import.
type ImportReport struct {
	Imported    int
	Failed      int
	Issues      []ImportIssue
	SettingsErr error
}

// Import parses an export document and re-adds every meal it contains,
// stripping identifiers and timestamps so the backend assigns fresh
// ones, then applies the document's settings. One meal's failure does
// not abort the rest; the report carries per-record outcomes. Importing
// the same document twice produces duplicate meals; there is no
// content-based deduplication.
func (d *Dispatcher) Import(ctx context.Context, data []byte) (ImportReport, error) {
	var doc model.ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return ImportReport{}, fmt.Errorf("failed to parse import payload: %w", err)
	}

	var report ImportReport
	for i, m := range doc.Meals {
		draft := model.MealDraft{
			Date:     m.Date,
			Time:     m.Time,
			FoodName: m.FoodName,
			Amount:   m.Amount,
			Calories: m.Calories,
			Protein:  m.Protein,
			PhotoURL: m.PhotoURL,
		}
		if _, err := d.AddMeal(ctx, draft); err != nil {
			d.logger.Error("failed to import meal", "index", i, "food", m.FoodName, "error", err)
			report.Failed++
			report.Issues = append(report.Issues, ImportIssue{Index: i, FoodName: m.FoodName, Err: err})
			continue
		}
		report.Imported++
	}

	patch := model.SettingsPatch{
		DailyCalories: &doc.Settings.DailyCalories,
		DailyProtein:  &doc.Settings.DailyProtein,
	}
	if _, err := d.UpdateSettings(ctx, patch); err != nil {
		d.logger.Error("failed to import settings", "error", err)
		report.SettingsErr = err
	}

	return report, nil
}
