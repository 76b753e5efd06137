package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
	"github.com/FilmThanapol/caloriemate-go/internal/testutil"
)

type fakeRemote struct {
	meals        []model.Meal
	settings     model.Settings
	listErr      error
	settingsErr  error
	subscribeErr error

	events chan model.Event

	mu        sync.Mutex
	stopCalls int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		settings: model.DefaultSettings(),
		events:   make(chan model.Event, 8),
	}
}

func (f *fakeRemote) CreateMeal(ctx context.Context, draft model.MealDraft) (model.Meal, error) {
	return model.Meal{}, errors.New("not implemented")
}

func (f *fakeRemote) UpdateMeal(ctx context.Context, id string, patch model.MealPatch) (model.Meal, error) {
	return model.Meal{}, errors.New("not implemented")
}

func (f *fakeRemote) DeleteMeal(ctx context.Context, id string) error {
	return errors.New("not implemented")
}

func (f *fakeRemote) ListMeals(ctx context.Context) ([]model.Meal, error) {
	return f.meals, f.listErr
}

func (f *fakeRemote) GetSettings(ctx context.Context) (model.Settings, error) {
	return f.settings, f.settingsErr
}

func (f *fakeRemote) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	return f.settings, nil
}

func (f *fakeRemote) Subscribe(ctx context.Context) (<-chan model.Event, func(), error) {
	if f.subscribeErr != nil {
		return nil, nil, f.subscribeErr
	}
	var once sync.Once
	stop := func() {
		once.Do(func() {
			f.mu.Lock()
			f.stopCalls++
			f.mu.Unlock()
			close(f.events)
		})
	}
	return f.events, stop, nil
}

func (f *fakeRemote) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

func TestStore_StartLoadsState(t *testing.T) {
	remote := newFakeRemote()
	remote.meals = []model.Meal{testMeal("m1", "Test Food", 200)}
	remote.settings = model.Settings{DailyCalories: 1800, DailyProtein: 120}

	s := New(remote, testutil.MakeNoopLogger())
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))

	state := s.State()
	assert.False(t, state.Loading)
	assert.NoError(t, state.Err)
	require.Len(t, state.Meals, 1)
	assert.Equal(t, "m1", state.Meals[0].ID)
	assert.Equal(t, 1800, state.Settings.DailyCalories)
}

func TestStore_StartLoadFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeRemote)
	}{
		{
			name:  "meal list fails",
			setup: func(f *fakeRemote) { f.listErr = errors.New("connection refused") },
		},
		{
			name:  "settings fetch fails",
			setup: func(f *fakeRemote) { f.settingsErr = errors.New("connection refused") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote()
			tt.setup(remote)

			s := New(remote, testutil.MakeNoopLogger())
			defer s.Close()

			require.NoError(t, s.Start(context.Background()))

			state := s.State()
			assert.False(t, state.Loading)
			assert.Error(t, state.Err)
			assert.Empty(t, state.Meals)
		})
	}
}

func TestStore_RefreshReplacesState(t *testing.T) {
	remote := newFakeRemote()
	remote.meals = []model.Meal{testMeal("m1", "Test Food", 200)}

	s := New(remote, testutil.MakeNoopLogger())
	defer s.Close()
	require.NoError(t, s.Start(context.Background()))

	remote.meals = []model.Meal{testMeal("m2", "Replacement", 300)}
	remote.settings = model.Settings{DailyCalories: 2500, DailyProtein: 180}

	require.NoError(t, s.Refresh(context.Background()))

	state := s.State()
	require.Len(t, state.Meals, 1)
	assert.Equal(t, "m2", state.Meals[0].ID)
	assert.Equal(t, 2500, state.Settings.DailyCalories)
}

func TestStore_RefreshFailureRecordsError(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote, testutil.MakeNoopLogger())
	defer s.Close()
	require.NoError(t, s.Start(context.Background()))

	remote.listErr = errors.New("gone away")

	require.Error(t, s.Refresh(context.Background()))
	assert.Error(t, s.State().Err)
}

func TestStore_StartSubscribeFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.subscribeErr = errors.New("connection refused")

	s := New(remote, testutil.MakeNoopLogger())

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Error(t, s.State().Err)
}

func TestStore_AppliesPushedEvents(t *testing.T) {
	remote := newFakeRemote()

	s := New(remote, testutil.MakeNoopLogger())
	defer s.Close()
	require.NoError(t, s.Start(context.Background()))

	remote.events <- model.MealInserted(testMeal("m1", "Test Food", 200))
	require.Eventually(t, func() bool {
		return len(s.State().Meals) == 1
	}, time.Second, 5*time.Millisecond)

	updated := testMeal("m1", "Test Food", 450)
	remote.events <- model.MealUpdated(updated)
	require.Eventually(t, func() bool {
		st := s.State()
		return len(st.Meals) == 1 && st.Meals[0].Calories == 450
	}, time.Second, 5*time.Millisecond)

	remote.events <- model.SettingsChanged(model.Settings{DailyCalories: 2200, DailyProtein: 160})
	require.Eventually(t, func() bool {
		return s.State().Settings.DailyCalories == 2200
	}, time.Second, 5*time.Millisecond)

	remote.events <- model.MealDeleted("m1")
	require.Eventually(t, func() bool {
		return len(s.State().Meals) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestStore_PushedEchoOfLocalAddIsNoOp(t *testing.T) {
	remote := newFakeRemote()

	s := New(remote, testutil.MakeNoopLogger())
	defer s.Close()
	require.NoError(t, s.Start(context.Background()))

	meal := testMeal("m1", "Test Food", 200)
	s.Dispatch(AddMeal(meal))

	remote.events <- model.MealInserted(meal)
	remote.events <- model.MealInserted(meal)

	// Let the pump drain before asserting nothing was duplicated.
	remote.events <- model.MealInserted(testMeal("m2", "Second", 300))
	require.Eventually(t, func() bool {
		return len(s.State().Meals) == 2
	}, time.Second, 5*time.Millisecond)

	state := s.State()
	assert.Equal(t, "m1", state.Meals[0].ID)
	assert.Equal(t, "m2", state.Meals[1].ID)
}

func TestStore_MalformedEventIgnored(t *testing.T) {
	remote := newFakeRemote()

	s := New(remote, testutil.MakeNoopLogger())
	defer s.Close()
	require.NoError(t, s.Start(context.Background()))

	remote.events <- model.Event{Op: model.EventInsert}
	remote.events <- model.MealInserted(testMeal("m1", "Test Food", 200))

	require.Eventually(t, func() bool {
		return len(s.State().Meals) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStore_WatchNotifies(t *testing.T) {
	remote := newFakeRemote()

	s := New(remote, testutil.MakeNoopLogger())
	defer s.Close()

	updates, cancel := s.Watch()
	defer cancel()

	s.Dispatch(AddMeal(testMeal("m1", "Test Food", 200)))

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("expected an update notification")
	}
}

func TestStore_WatchCancelCloses(t *testing.T) {
	remote := newFakeRemote()

	s := New(remote, testutil.MakeNoopLogger())
	defer s.Close()

	updates, cancel := s.Watch()
	cancel()
	cancel()

	_, open := <-updates
	assert.False(t, open)

	// Dispatch after cancel must not panic on the closed channel.
	s.Dispatch(AddMeal(testMeal("m1", "Test Food", 200)))
}

func TestStore_CloseReleasesSubscription(t *testing.T) {
	remote := newFakeRemote()

	s := New(remote, testutil.MakeNoopLogger())
	require.NoError(t, s.Start(context.Background()))

	s.Close()
	s.Close()

	assert.Equal(t, 1, remote.stopCount())
}

func TestStore_StateReturnsCopy(t *testing.T) {
	remote := newFakeRemote()

	s := New(remote, testutil.MakeNoopLogger())
	defer s.Close()

	s.Dispatch(AddMeal(testMeal("m1", "Test Food", 200)))

	state := s.State()
	state.Meals[0].Calories = 999

	assert.Equal(t, 200, s.State().Meals[0].Calories)
}
