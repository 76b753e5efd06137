package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
	"github.com/FilmThanapol/caloriemate-go/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow live changes",
		Long: "Print changes as they are applied to the local state. Stop with Ctrl-C.\n" +
			"Most useful in api mode, where other sessions' changes stream in.",
		Run: runWatch,
	}

	RootCmd.AddCommand(cmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	runSession(cmd, func(ctx context.Context, s *session) error {
		updates, cancel := s.store.Watch()
		defer cancel()

		last := s.store.State()
		fmt.Printf("watching %d meal(s); Ctrl-C to stop\n", len(last.Meals))

		for {
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-updates:
				if !ok {
					return nil
				}
				current := s.store.State()
				printChanges(last, current)
				last = current
			}
		}
	})
}

// printChanges diffs two states by meal identifier. Watch notifications
// are coalesced, so one tick can cover several changes.
func printChanges(prev, next store.State) {
	prevByID := make(map[string]model.Meal, len(prev.Meals))
	for _, m := range prev.Meals {
		prevByID[m.ID] = m
	}

	seen := make(map[string]bool, len(next.Meals))
	for _, m := range next.Meals {
		seen[m.ID] = true
		old, ok := prevByID[m.ID]
		switch {
		case !ok:
			fmt.Printf("+ %s: %s %s, %d kcal (%s %s)\n", m.ID, m.FoodName, m.Amount, m.Calories, m.Date, m.Time)
		case old != m:
			fmt.Printf("~ %s: %s %s, %d kcal (%s %s)\n", m.ID, m.FoodName, m.Amount, m.Calories, m.Date, m.Time)
		}
	}
	for id, m := range prevByID {
		if !seen[id] {
			fmt.Printf("- %s: %s\n", id, m.FoodName)
		}
	}

	if prev.Settings != next.Settings {
		fmt.Printf("goals: %d kcal, %.1fg protein\n", next.Settings.DailyCalories, next.Settings.DailyProtein)
	}
}
