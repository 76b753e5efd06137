// Package store holds the client-side reconciled state: a reducer over
// a closed action set and a container that serializes transitions from
// user-initiated actions and remotely pushed change events.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

// Store owns the canonical in-memory state for one session. All
// mutations flow through Dispatch, which applies the reducer under a
// single mutex, so local actions and pushed events are applied one at
// a time in arrival order. If two writes to the same record race over
// the network, the response applied last wins; there is no conflict
// detection.
type Store struct {
	remote model.Remote
	logger *logger.Logger

	mu    sync.RWMutex
	state State

	watchMu  sync.Mutex
	watchers map[int]chan struct{}
	nextID   int

	stopOnce sync.Once
	stopSub  func()
	pumpDone chan struct{}
}

// New returns a store over the given remote. State starts empty with
// default goals; call Start to subscribe and load.
func New(remote model.Remote, logger *logger.Logger) *Store {
	return &Store{
		remote: remote,
		logger: logger,
		state:  Initial(),
	}
}

// Start establishes the push subscription and performs the initial
// load. The subscription is opened before the load so no change slips
// between the two; the reducer's idempotent merge absorbs any overlap.
// A failed load leaves the store alive in an error state and is not
// returned; a failed subscribe is returned because the session cannot
// observe remote changes without it.
func (s *Store) Start(ctx context.Context) error {
	s.Dispatch(SetLoading(true))

	events, stop, err := s.remote.Subscribe(ctx)
	if err != nil {
		err = fmt.Errorf("failed to subscribe: %w", err)
		s.Dispatch(SetError(err))
		return err
	}
	s.stopSub = stop
	s.pumpDone = make(chan struct{})
	go s.pump(events)

	meals, err := s.remote.ListMeals(ctx)
	if err != nil {
		s.logger.Error("initial meal load failed", "error", err)
		s.Dispatch(SetError(fmt.Errorf("failed to load meals: %w", err)))
		return nil
	}
	settings, err := s.remote.GetSettings(ctx)
	if err != nil {
		s.logger.Error("initial settings load failed", "error", err)
		s.Dispatch(SetError(fmt.Errorf("failed to load settings: %w", err)))
		return nil
	}

	s.Dispatch(LoadData(meals, settings))
	s.logger.Debug("store loaded", "meals", len(meals))
	return nil
}

// Refresh refetches meals and settings and replaces local state with
// the result. Pushed events keep applying throughout.
func (s *Store) Refresh(ctx context.Context) error {
	s.Dispatch(SetLoading(true))

	meals, err := s.remote.ListMeals(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load meals: %w", err)
		s.Dispatch(SetError(err))
		return err
	}
	settings, err := s.remote.GetSettings(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load settings: %w", err)
		s.Dispatch(SetError(err))
		return err
	}

	s.Dispatch(LoadData(meals, settings))
	return nil
}

// Close releases the subscription and waits for in-flight events to be
// applied. Safe to call more than once.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		if s.stopSub != nil {
			s.stopSub()
		}
	})
	if s.pumpDone != nil {
		<-s.pumpDone
	}
}

func (s *Store) pump(events <-chan model.Event) {
	defer close(s.pumpDone)
	for ev := range events {
		s.Apply(ev)
	}
}

// Apply folds one pushed change event into state using the same
// reducer actions as local mutations.
func (s *Store) Apply(ev model.Event) {
	switch {
	case ev.Op == model.EventInsert && ev.Meal != nil:
		s.Dispatch(AddMeal(*ev.Meal))
	case ev.Op == model.EventUpdate && ev.Meal != nil:
		s.Dispatch(UpdateMeal(ev.Meal.ID, ev.Meal.Patch()))
	case ev.Op == model.EventUpdate && ev.Settings != nil:
		s.Dispatch(SetSettings(*ev.Settings))
	case ev.Op == model.EventDelete && ev.MealID != "":
		s.Dispatch(DeleteMeal(ev.MealID))
	default:
		s.logger.Debug("ignoring malformed event", "op", ev.Op)
	}
}

// Dispatch applies one action and notifies watchers.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	s.mu.Unlock()
	s.notify()
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Meals = cloneMeals(s.state.Meals)
	return st
}

// Watch registers an update notification channel. A token is sent
// after every dispatch; sends coalesce when the watcher lags. The
// returned cancel closes the channel and is safe to call more than
// once.
func (s *Store) Watch() (<-chan struct{}, func()) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.watchers == nil {
		s.watchers = make(map[int]chan struct{})
	}
	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.watchers[id] = ch

	cancel := func() {
		s.watchMu.Lock()
		defer s.watchMu.Unlock()
		if _, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *Store) notify() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
