// Package cli implements the caloriemate commands: a thin host that
// drives the reconciled store and dispatcher over either an embedded
// database or a caloriemate server.
package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

var configFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "caloriemate",
	Short: "Track meals and daily nutrition goals",
	Long: "Track meals and daily nutrition goals from the terminal.\n\n" +
		"Data lives in an embedded database by default; run caloriemate login\n" +
		"to sync against a caloriemate server instead. Config is read from\n" +
		defaultConfigPath + ".",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default "+defaultConfigPath+")")
}

// configPath resolves the config file location: flag, then environment,
// then the default.
func configPath() string {
	if configFlag != "" {
		return configFlag
	}
	return os.Getenv("CALORIEMATE_CONFIG")
}

// newLogger builds the command logger. Logs go to stderr so command
// output on stdout stays clean.
func newLogger(cfg Config) *logger.Logger {
	return logger.NewTo(os.Stderr, cfg.LogLevel)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

// sortMeals orders by date, then time of day, then creation time. The
// store itself keeps no order.
func sortMeals(meals []model.Meal) {
	sort.Slice(meals, func(i, j int) bool {
		if meals[i].Date != meals[j].Date {
			return meals[i].Date < meals[j].Date
		}
		if meals[i].Time != meals[j].Time {
			return meals[i].Time < meals[j].Time
		}
		return meals[i].CreatedAt.Before(meals[j].CreatedAt)
	})
}
