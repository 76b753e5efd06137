package model

import "context"

// Remote is the backend a reconciled store synchronizes against. It
// exposes CRUD over meals, the singleton settings record, and a push
// channel for changes made by other sessions.
//
// CreateMeal assigns the identifier and timestamps; callers never pick
// identifiers. GetSettings creates the record with default goals on
// first use. Subscribe returns a receive-only event channel and a stop
// function; the channel is closed after stop is called or ctx is done,
// and stop is safe to call more than once.
type Remote interface {
	CreateMeal(ctx context.Context, draft MealDraft) (Meal, error)
	UpdateMeal(ctx context.Context, id string, patch MealPatch) (Meal, error)
	DeleteMeal(ctx context.Context, id string) error
	ListMeals(ctx context.Context) ([]Meal, error)
	GetSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, patch SettingsPatch) (Settings, error)
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
}
