package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Show or change the daily goals",
		Long:  "Show the daily calorie and protein goals. Pass --calories or --protein to change them.",
		Run:   runGoals,
	}

	cmd.Flags().IntP("calories", "c", 0, "New daily calorie goal")
	cmd.Flags().Float64P("protein", "p", 0, "New daily protein goal in grams")

	RootCmd.AddCommand(cmd)
}

func runGoals(cmd *cobra.Command, args []string) {
	runSession(cmd, func(ctx context.Context, s *session) error {
		var patch model.SettingsPatch
		if cmd.Flags().Changed("calories") {
			calories, _ := cmd.Flags().GetInt("calories")
			patch.DailyCalories = &calories
		}
		if cmd.Flags().Changed("protein") {
			protein, _ := cmd.Flags().GetFloat64("protein")
			patch.DailyProtein = &protein
		}

		settings := s.store.State().Settings
		if !patch.Empty() {
			updated, err := s.dispatcher.UpdateSettings(ctx, patch)
			if err != nil {
				return err
			}
			settings = updated
		}

		fmt.Printf("daily goals: %d kcal, %.1fg protein\n", settings.DailyCalories, settings.DailyProtein)
		return nil
	})
}
