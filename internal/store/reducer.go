package store

import "github.com/FilmThanapol/caloriemate-go/internal/model"

// ActionType enumerates the closed set of state transitions.
type ActionType string

const (
	// ActionSetLoading toggles the loading flag.
	ActionSetLoading ActionType = "SET_LOADING"
	// ActionLoadData installs the initial meals and settings.
	ActionLoadData ActionType = "LOAD_DATA"
	// ActionSetError records a load failure.
	ActionSetError ActionType = "SET_ERROR"
	// ActionAddMeal appends a meal if its identifier is new.
	ActionAddMeal ActionType = "ADD_MEAL"
	// ActionUpdateMeal applies a partial field replacement to a meal.
	ActionUpdateMeal ActionType = "UPDATE_MEAL"
	// ActionDeleteMeal removes a meal.
	ActionDeleteMeal ActionType = "DELETE_MEAL"
	// ActionSetSettings replaces the settings record wholesale.
	ActionSetSettings ActionType = "SET_SETTINGS"
)

// Action is one state transition input. Only the fields relevant to its
// type are read.
type Action struct {
	Type     ActionType
	Loading  bool
	Err      error
	Meals    []model.Meal
	Meal     model.Meal
	MealID   string
	Patch    model.MealPatch
	Settings model.Settings
}

// SetLoading builds a SET_LOADING action.
func SetLoading(loading bool) Action {
	return Action{Type: ActionSetLoading, Loading: loading}
}

// LoadData builds a LOAD_DATA action.
func LoadData(meals []model.Meal, settings model.Settings) Action {
	return Action{Type: ActionLoadData, Meals: meals, Settings: settings}
}

// SetError builds a SET_ERROR action.
func SetError(err error) Action {
	return Action{Type: ActionSetError, Err: err}
}

// AddMeal builds an ADD_MEAL action.
func AddMeal(meal model.Meal) Action {
	return Action{Type: ActionAddMeal, Meal: meal}
}

// UpdateMeal builds an UPDATE_MEAL action.
func UpdateMeal(id string, patch model.MealPatch) Action {
	return Action{Type: ActionUpdateMeal, MealID: id, Patch: patch}
}

// DeleteMeal builds a DELETE_MEAL action.
func DeleteMeal(id string) Action {
	return Action{Type: ActionDeleteMeal, MealID: id}
}

// SetSettings builds a SET_SETTINGS action.
func SetSettings(settings model.Settings) Action {
	return Action{Type: ActionSetSettings, Settings: settings}
}

// State is the canonical client-side view: the meal collection, the
// settings record, a loading flag and the last load error. Meal order
// carries no meaning; consumers sort as needed.
type State struct {
	Meals    []model.Meal
	Settings model.Settings
	Loading  bool
	Err      error
}

// Initial returns the state before any load completes: no meals,
// default goals, not loading.
func Initial() State {
	return State{Settings: model.DefaultSettings()}
}

// Reduce maps (previous state, action) to the next state. It performs
// no I/O and never mutates its inputs; the meal slice is copied before
// any change. Updates and deletes for unknown identifiers are silent
// no-ops, which makes a local confirmation and a pushed echo of the
// same change safe to apply in either order.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionSetLoading:
		s.Loading = a.Loading
		return s
	case ActionLoadData:
		s.Meals = cloneMeals(a.Meals)
		s.Settings = a.Settings
		s.Loading = false
		s.Err = nil
		return s
	case ActionSetError:
		s.Err = a.Err
		s.Loading = false
		return s
	case ActionAddMeal:
		if indexOf(s.Meals, a.Meal.ID) >= 0 {
			return s
		}
		meals := make([]model.Meal, 0, len(s.Meals)+1)
		meals = append(meals, s.Meals...)
		s.Meals = append(meals, a.Meal)
		return s
	case ActionUpdateMeal:
		i := indexOf(s.Meals, a.MealID)
		if i < 0 {
			return s
		}
		meals := cloneMeals(s.Meals)
		meals[i] = a.Patch.Apply(meals[i])
		s.Meals = meals
		return s
	case ActionDeleteMeal:
		i := indexOf(s.Meals, a.MealID)
		if i < 0 {
			return s
		}
		meals := make([]model.Meal, 0, len(s.Meals)-1)
		meals = append(meals, s.Meals[:i]...)
		s.Meals = append(meals, s.Meals[i+1:]...)
		return s
	case ActionSetSettings:
		s.Settings = a.Settings
		return s
	default:
		return s
	}
}

func indexOf(meals []model.Meal, id string) int {
	for i, m := range meals {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func cloneMeals(meals []model.Meal) []model.Meal {
	if len(meals) == 0 {
		return nil
	}
	dup := make([]model.Meal, len(meals))
	copy(dup, meals)
	return dup
}
