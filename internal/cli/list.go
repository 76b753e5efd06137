package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List logged meals",
		Run:   runList,
	}

	cmd.Flags().String("date", "", "Only meals on this date (YYYY-MM-DD)")
	cmd.Flags().Bool("json", false, "JSON output")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	date, _ := cmd.Flags().GetString("date")
	asJSON, _ := cmd.Flags().GetBool("json")

	runSession(cmd, func(ctx context.Context, s *session) error {
		meals := s.store.State().Meals
		if date != "" {
			filtered := make([]model.Meal, 0, len(meals))
			for _, m := range meals {
				if m.Date == date {
					filtered = append(filtered, m)
				}
			}
			meals = filtered
		}
		sortMeals(meals)

		if asJSON {
			data, err := json.MarshalIndent(meals, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode meals: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(meals) == 0 {
			fmt.Println("no meals logged")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tTIME\tFOOD\tAMOUNT\tKCAL\tPROTEIN\tPHOTO")
		for _, m := range meals {
			photo := ""
			if m.PhotoURL != "" {
				photo = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.1f\t%s\n",
				m.ID, m.Date, m.Time, m.FoodName, m.Amount, m.Calories, m.Protein, photo)
		}
		return w.Flush()
	})
}
