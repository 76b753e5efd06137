package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DateLayout and TimeLayout are the wire formats for a meal's calendar
// date and time of day.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// MealStore defines persistence operations for meals.
type MealStore interface {
	Create(ctx context.Context, userID uuid.UUID, meal Meal) (Meal, error)
	GetByID(ctx context.Context, userID uuid.UUID, id string) (Meal, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]Meal, error)
	GetByUserIDAndDate(ctx context.Context, userID uuid.UUID, date string) ([]Meal, error)
	GetByUserIDAndDateRange(ctx context.Context, userID uuid.UUID, from, to string) ([]Meal, error)
	Update(ctx context.Context, userID uuid.UUID, id string, patch MealPatch) (Meal, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error
}

// Meal represents one logged food entry. The identifier is assigned by
// the backend at creation time and never changes afterwards.
type Meal struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	FoodName  string    `json:"food_name"`
	Amount    string    `json:"amount"`
	Calories  int       `json:"calories"`
	Protein   float64   `json:"protein"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch returns a patch carrying every mutable field of the meal. It is
// how a confirmed server row or a pushed update event is folded into
// local state.
func (m Meal) Patch() MealPatch {
	return MealPatch{
		Date:      &m.Date,
		Time:      &m.Time,
		FoodName:  &m.FoodName,
		Amount:    &m.Amount,
		Calories:  &m.Calories,
		Protein:   &m.Protein,
		PhotoURL:  &m.PhotoURL,
		UpdatedAt: &m.UpdatedAt,
	}
}

// MealDraft contains caller-supplied fields to create a meal. The
// backend assigns identifier and timestamps.
type MealDraft struct {
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	FoodName string  `json:"food_name"`
	Amount   string  `json:"amount"`
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	PhotoURL string  `json:"photo_url,omitempty"`
}

// Validate checks the draft against field invariants. It returns a
// *ValidationError naming every failed field, or nil.
func (d MealDraft) Validate() error {
	v := &ValidationError{}
	if d.FoodName == "" {
		v.Add("food_name", "must not be empty")
	}
	if d.Amount == "" {
		v.Add("amount", "must not be empty")
	}
	if d.Calories < 0 {
		v.Add("calories", "must not be negative")
	}
	if d.Protein < 0 {
		v.Add("protein", "must not be negative")
	}
	if _, err := time.Parse(DateLayout, d.Date); err != nil {
		v.Add("date", "must be formatted as "+DateLayout)
	}
	if _, err := time.Parse(TimeLayout, d.Time); err != nil {
		v.Add("time", "must be formatted as HH:MM")
	}
	if v.Empty() {
		return nil
	}
	return v
}

// Meal builds a meal from the draft, without identifier or timestamps.
func (d MealDraft) Meal() Meal {
	return Meal{
		Date:     d.Date,
		Time:     d.Time,
		FoodName: d.FoodName,
		Amount:   d.Amount,
		Calories: d.Calories,
		Protein:  d.Protein,
		PhotoURL: d.PhotoURL,
	}
}

// MealPatch contains a partial field replacement for a meal. Nil fields
// are left untouched when the patch is applied.
type MealPatch struct {
	Date      *string    `json:"date,omitempty"`
	Time      *string    `json:"time,omitempty"`
	FoodName  *string    `json:"food_name,omitempty"`
	Amount    *string    `json:"amount,omitempty"`
	Calories  *int       `json:"calories,omitempty"`
	Protein   *float64   `json:"protein,omitempty"`
	PhotoURL  *string    `json:"photo_url,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Validate checks the set fields of the patch against the same
// invariants as MealDraft.Validate.
func (p MealPatch) Validate() error {
	v := &ValidationError{}
	if p.FoodName != nil && *p.FoodName == "" {
		v.Add("food_name", "must not be empty")
	}
	if p.Amount != nil && *p.Amount == "" {
		v.Add("amount", "must not be empty")
	}
	if p.Calories != nil && *p.Calories < 0 {
		v.Add("calories", "must not be negative")
	}
	if p.Protein != nil && *p.Protein < 0 {
		v.Add("protein", "must not be negative")
	}
	if p.Date != nil {
		if _, err := time.Parse(DateLayout, *p.Date); err != nil {
			v.Add("date", "must be formatted as "+DateLayout)
		}
	}
	if p.Time != nil {
		if _, err := time.Parse(TimeLayout, *p.Time); err != nil {
			v.Add("time", "must be formatted as HH:MM")
		}
	}
	if v.Empty() {
		return nil
	}
	return v
}

// Apply merges the set fields of the patch into the meal and returns the
// result. Identity and creation timestamp are never touched.
func (p MealPatch) Apply(m Meal) Meal {
	if p.Date != nil {
		m.Date = *p.Date
	}
	if p.Time != nil {
		m.Time = *p.Time
	}
	if p.FoodName != nil {
		m.FoodName = *p.FoodName
	}
	if p.Amount != nil {
		m.Amount = *p.Amount
	}
	if p.Calories != nil {
		m.Calories = *p.Calories
	}
	if p.Protein != nil {
		m.Protein = *p.Protein
	}
	if p.PhotoURL != nil {
		m.PhotoURL = *p.PhotoURL
	}
	if p.UpdatedAt != nil {
		m.UpdatedAt = *p.UpdatedAt
	}
	return m
}

// Empty reports whether no field of the patch is set.
func (p MealPatch) Empty() bool {
	return p.Date == nil && p.Time == nil && p.FoodName == nil &&
		p.Amount == nil && p.Calories == nil && p.Protein == nil &&
		p.PhotoURL == nil && p.UpdatedAt == nil
}
