package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

// Meal owns the lifecycle of logged meals: validation, persistence,
// photo objects and change fanout to connected sessions.
type Meal struct {
	mealStore   model.MealStore
	userStore   model.UserStore
	storage     model.Storage
	broadcaster model.Broadcaster
	logger      *logger.Logger
}

func NewMeal(
	mealStore model.MealStore,
	userStore model.UserStore,
	storage model.Storage,
	broadcaster model.Broadcaster,
	logger *logger.Logger,
) *Meal {
	return &Meal{
		mealStore:   mealStore,
		userStore:   userStore,
		storage:     storage,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (s *Meal) CreateMeal(ctx context.Context, userID uuid.UUID, draft model.MealDraft) (model.Meal, error) {
	if err := draft.Validate(); err != nil {
		return model.Meal{}, err
	}

	_, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return model.Meal{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	meal := draft.Meal()
	meal.ID = uuid.NewString()

	meal, err = s.mealStore.Create(ctx, userID, meal)
	if err != nil {
		return model.Meal{}, fmt.Errorf("failed to create meal: %w", err)
	}

	s.broadcaster.Broadcast(userID, model.MealInserted(meal))

	s.logger.Info("Meal service: meal created",
		"user_id", userID,
		"meal_id", meal.ID)

	return meal, nil
}

func (s *Meal) GetMeal(ctx context.Context, userID uuid.UUID, mealID string) (model.Meal, error) {
	meal, err := s.mealStore.GetByID(ctx, userID, mealID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Meal{}, model.ErrNotFound
		}
		return model.Meal{}, fmt.Errorf("failed to get meal by id: %w", err)
	}

	return meal, nil
}

func (s *Meal) ListMeals(ctx context.Context, userID uuid.UUID) ([]model.Meal, error) {
	meals, err := s.mealStore.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get meals by user id: %w", err)
	}

	return meals, nil
}

func (s *Meal) ListMealsByDate(ctx context.Context, userID uuid.UUID, date string) ([]model.Meal, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		verr := &model.ValidationError{}
		verr.Add("date", "must be formatted as "+model.DateLayout)
		return nil, verr
	}

	meals, err := s.mealStore.GetByUserIDAndDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get meals by date: %w", err)
	}

	return meals, nil
}

func (s *Meal) ListMealsByDateRange(ctx context.Context, userID uuid.UUID, from, to string) ([]model.Meal, error) {
	verr := &model.ValidationError{}
	if _, err := time.Parse(model.DateLayout, from); err != nil {
		verr.Add("from", "must be formatted as "+model.DateLayout)
	}
	if _, err := time.Parse(model.DateLayout, to); err != nil {
		verr.Add("to", "must be formatted as "+model.DateLayout)
	}
	if !verr.Empty() {
		return nil, verr
	}
	if from > to {
		verr.Add("from", "must not be after to")
		return nil, verr
	}

	meals, err := s.mealStore.GetByUserIDAndDateRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get meals by date range: %w", err)
	}

	return meals, nil
}

func (s *Meal) UpdateMeal(ctx context.Context, userID uuid.UUID, mealID string, patch model.MealPatch) (model.Meal, error) {
	if patch.Empty() {
		verr := &model.ValidationError{}
		verr.Add("patch", "at least one field must be set")
		return model.Meal{}, verr
	}
	if err := patch.Validate(); err != nil {
		return model.Meal{}, err
	}

	meal, err := s.mealStore.Update(ctx, userID, mealID, patch)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Meal{}, model.ErrNotFound
		}
		return model.Meal{}, fmt.Errorf("failed to update meal: %w", err)
	}

	s.broadcaster.Broadcast(userID, model.MealUpdated(meal))

	return meal, nil
}

func (s *Meal) DeleteMeal(ctx context.Context, userID uuid.UUID, mealID string) error {
	meal, err := s.mealStore.GetByID(ctx, userID, mealID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to get meal: %w", err)
	}

	if err := s.mealStore.Delete(ctx, userID, mealID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to delete meal: %w", err)
	}

	// Photo objects are cleaned up best-effort; an orphan is harmless.
	if meal.PhotoURL != "" {
		if err := s.storage.Delete(ctx, meal.PhotoURL); err != nil {
			s.logger.Error("Failed to delete photo from storage",
				"meal_id", mealID,
				"error", err)
		}
	}

	s.broadcaster.Broadcast(userID, model.MealDeleted(mealID))

	return nil
}

// AttachPhoto uploads a photo for the meal and records its object key.
// A previous photo, if any, is replaced.
func (s *Meal) AttachPhoto(ctx context.Context, userID uuid.UUID, mealID string, data io.Reader) (model.Meal, error) {
	meal, err := s.mealStore.GetByID(ctx, userID, mealID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Meal{}, model.ErrNotFound
		}
		return model.Meal{}, fmt.Errorf("failed to get meal: %w", err)
	}

	key := s.generatePhotoKey(userID, mealID)

	if err := s.storage.Upload(ctx, key, data); err != nil {
		return model.Meal{}, fmt.Errorf("failed to upload photo: %w", err)
	}

	oldKey := meal.PhotoURL
	updated, err := s.mealStore.Update(ctx, userID, mealID, model.MealPatch{PhotoURL: &key})
	if err != nil {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Error("Failed to delete photo after update failure",
				"key", key,
				"error", err)
		}
		return model.Meal{}, fmt.Errorf("failed to record photo key: %w", err)
	}

	if oldKey != "" && oldKey != key {
		if err := s.storage.Delete(ctx, oldKey); err != nil {
			s.logger.Error("Failed to delete replaced photo",
				"key", oldKey,
				"error", err)
		}
	}

	s.broadcaster.Broadcast(userID, model.MealUpdated(updated))

	return updated, nil
}

// PhotoStream returns the stored photo of the meal for streaming to the
// client. The caller closes the reader.
func (s *Meal) PhotoStream(ctx context.Context, userID uuid.UUID, mealID string) (io.ReadCloser, error) {
	meal, err := s.mealStore.GetByID(ctx, userID, mealID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}

	if meal.PhotoURL == "" {
		return nil, model.ErrNotFound
	}

	// Downloads are lazy, so a vanished object would only fail mid-stream.
	exists, err := s.storage.Exists(ctx, meal.PhotoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to check photo existence: %w", err)
	}
	if !exists {
		return nil, model.ErrNotFound
	}

	reader, err := s.storage.Download(ctx, meal.PhotoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download photo: %w", err)
	}

	return reader, nil
}

func (s *Meal) generatePhotoKey(userID uuid.UUID, mealID string) string {
	return fmt.Sprintf("user-%s/meal-%s/photo-%s", userID.String(), mealID, uuid.NewString())
}
