package model

import "github.com/google/uuid"

// EventOp tags a pushed change notification with the operation that
// produced it.
type EventOp string

const (
	// EventInsert signals a newly created meal.
	EventInsert EventOp = "insert"
	// EventUpdate signals a mutated meal or settings record.
	EventUpdate EventOp = "update"
	// EventDelete signals a removed meal.
	EventDelete EventOp = "delete"
)

// Event is one change notification pushed by the backend. Insert and
// update events for meals carry the full record; delete events carry
// only the identifier. Settings changes carry the new settings record.
type Event struct {
	Op       EventOp   `json:"op"`
	Meal     *Meal     `json:"meal,omitempty"`
	MealID   string    `json:"meal_id,omitempty"`
	Settings *Settings `json:"settings,omitempty"`
}

// MealInserted builds an insert event for a meal.
func MealInserted(m Meal) Event {
	return Event{Op: EventInsert, Meal: &m, MealID: m.ID}
}

// MealUpdated builds an update event for a meal.
func MealUpdated(m Meal) Event {
	return Event{Op: EventUpdate, Meal: &m, MealID: m.ID}
}

// MealDeleted builds a delete event carrying only the identifier.
func MealDeleted(id string) Event {
	return Event{Op: EventDelete, MealID: id}
}

// SettingsChanged builds an update event for the settings record.
func SettingsChanged(s Settings) Event {
	return Event{Op: EventUpdate, Settings: &s}
}

// Broadcaster fans change events out to a user's connected sessions.
type Broadcaster interface {
	Broadcast(userID uuid.UUID, event Event)
}

