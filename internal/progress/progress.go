// Package progress computes daily and weekly rollups of logged meals
// against the configured goals. All functions are pure; callers pass
// the meal slice and settings they already hold.
package progress

import (
	"fmt"
	"math"
	"time"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

// WeekDays is the number of days a week summary covers.
const WeekDays = 7

// Day is one calendar day's consumption measured against the goals.
// Percentages are capped at 100 so progress bars cannot overflow.
type Day struct {
	Date           string  `json:"date"`
	Meals          int     `json:"meals"`
	Calories       int     `json:"calories"`
	Protein        float64 `json:"protein"`
	CalorieGoal    int     `json:"calorie_goal"`
	ProteinGoal    float64 `json:"protein_goal"`
	CaloriePercent float64 `json:"calorie_percent"`
	ProteinPercent float64 `json:"protein_percent"`
}

// Week is seven consecutive days ending at a date, oldest first.
type Week struct {
	Days          []Day   `json:"days"`
	TotalCalories int     `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
	AvgCalories   float64 `json:"avg_calories"`
	AvgProtein    float64 `json:"avg_protein"`
}

// ForDay rolls up the meals logged on date. A date that matches no
// meal yields an empty day, not an error.
func ForDay(meals []model.Meal, settings model.Settings, date string) Day {
	day := Day{
		Date:        date,
		CalorieGoal: settings.DailyCalories,
		ProteinGoal: settings.DailyProtein,
	}
	for _, meal := range meals {
		if meal.Date != date {
			continue
		}
		day.Meals++
		day.Calories += meal.Calories
		day.Protein += meal.Protein
	}
	day.Protein = round2(day.Protein)
	day.CaloriePercent = percent(float64(day.Calories), float64(day.CalorieGoal))
	day.ProteinPercent = percent(day.Protein, day.ProteinGoal)
	return day
}

// ForWeek rolls up the seven days ending at end, which must be in the
// meal date format.
func ForWeek(meals []model.Meal, settings model.Settings, end string) (Week, error) {
	endDay, err := time.Parse(model.DateLayout, end)
	if err != nil {
		return Week{}, fmt.Errorf("failed to parse week end date: %w", err)
	}

	week := Week{Days: make([]Day, 0, WeekDays)}
	for offset := WeekDays - 1; offset >= 0; offset-- {
		date := endDay.AddDate(0, 0, -offset).Format(model.DateLayout)
		day := ForDay(meals, settings, date)
		week.Days = append(week.Days, day)
		week.TotalCalories += day.Calories
		week.TotalProtein += day.Protein
	}
	week.TotalProtein = round2(week.TotalProtein)
	week.AvgCalories = round2(float64(week.TotalCalories) / WeekDays)
	week.AvgProtein = round2(week.TotalProtein / WeekDays)
	return week, nil
}

// percent measures consumed against goal, capped at 100. A zero goal
// with any consumption reads as complete.
func percent(consumed, goal float64) float64 {
	if goal <= 0 {
		if consumed <= 0 {
			return 0
		}
		return 100
	}
	p := round2(consumed / goal * 100)
	if p > 100 {
		return 100
	}
	return p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
