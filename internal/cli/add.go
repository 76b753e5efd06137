package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a meal",
		Run:   runAdd,
	}

	cmd.Flags().String("date", "", "Meal date YYYY-MM-DD (default today)")
	cmd.Flags().String("time", "", "Meal time HH:MM (default now)")
	cmd.Flags().StringP("food", "f", "", "Food name (required)")
	cmd.Flags().StringP("amount", "a", "", "Amount, free text like \"200g\" (required)")
	cmd.Flags().IntP("calories", "c", 0, "Calories (required)")
	cmd.Flags().Float64P("protein", "p", 0, "Protein in grams")
	cmd.Flags().String("photo", "", "Photo file to attach (api mode only)")

	cmd.MarkFlagRequired("food")
	cmd.MarkFlagRequired("amount")
	cmd.MarkFlagRequired("calories")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	date, _ := cmd.Flags().GetString("date")
	timeOfDay, _ := cmd.Flags().GetString("time")
	food, _ := cmd.Flags().GetString("food")
	amount, _ := cmd.Flags().GetString("amount")
	calories, _ := cmd.Flags().GetInt("calories")
	protein, _ := cmd.Flags().GetFloat64("protein")
	photoPath, _ := cmd.Flags().GetString("photo")

	now := time.Now()
	if date == "" {
		date = now.Format(model.DateLayout)
	}
	if timeOfDay == "" {
		timeOfDay = now.Format(model.TimeLayout)
	}

	runSession(cmd, func(ctx context.Context, s *session) error {
		meal, err := s.dispatcher.AddMeal(ctx, model.MealDraft{
			Date:     date,
			Time:     timeOfDay,
			FoodName: food,
			Amount:   amount,
			Calories: calories,
			Protein:  protein,
		})
		if err != nil {
			return err
		}

		if photoPath != "" {
			updated, err := attachPhoto(ctx, s, meal.ID, photoPath)
			if err != nil {
				return fmt.Errorf("meal %s saved without photo: %w", meal.ID, err)
			}
			meal = updated
		}

		fmt.Printf("added %s: %s %s, %d kcal, %.1fg protein (%s %s)\n",
			meal.ID, meal.FoodName, meal.Amount, meal.Calories, meal.Protein, meal.Date, meal.Time)
		return nil
	})
}
