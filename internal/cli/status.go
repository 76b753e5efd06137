package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
	"github.com/FilmThanapol/caloriemate-go/internal/progress"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show progress against the daily goals",
		Run:   runStatus,
	}

	cmd.Flags().String("date", "", "Day to report (YYYY-MM-DD, default today)")
	cmd.Flags().BoolP("week", "w", false, "Report the 7 days ending at the date")
	cmd.Flags().Bool("json", false, "JSON output")

	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	date, _ := cmd.Flags().GetString("date")
	week, _ := cmd.Flags().GetBool("week")
	asJSON, _ := cmd.Flags().GetBool("json")

	if date == "" {
		date = time.Now().Format(model.DateLayout)
	} else if _, err := time.Parse(model.DateLayout, date); err != nil {
		exitErr("status", fmt.Errorf("date must be formatted as %s", model.DateLayout))
	}

	runSession(cmd, func(ctx context.Context, s *session) error {
		state := s.store.State()

		if week {
			summary, err := progress.ForWeek(state.Meals, state.Settings, date)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(summary)
			}
			printWeek(summary)
			return nil
		}

		day := progress.ForDay(state.Meals, state.Settings, date)
		if asJSON {
			return printJSON(day)
		}
		printDay(day)
		return nil
	})
}

func printDay(day progress.Day) {
	fmt.Printf("%s: %d meal(s)\n", day.Date, day.Meals)
	fmt.Printf("  calories  %d / %d kcal (%.0f%%)\n", day.Calories, day.CalorieGoal, day.CaloriePercent)
	fmt.Printf("  protein   %.1f / %.1f g (%.0f%%)\n", day.Protein, day.ProteinGoal, day.ProteinPercent)
}

func printWeek(week progress.Week) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tMEALS\tKCAL\tPROTEIN")
	for _, day := range week.Days {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\n", day.Date, day.Meals, day.Calories, day.Protein)
	}
	fmt.Fprintf(w, "total\t\t%d\t%.1f\n", week.TotalCalories, week.TotalProtein)
	fmt.Fprintf(w, "avg/day\t\t%.0f\t%.2f\n", week.AvgCalories, week.AvgProtein)
	w.Flush()
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
