package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

func TestSortMeals(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	meals := []model.Meal{
		{ID: "d", Date: "2025-06-02", Time: "08:00"},
		{ID: "b", Date: "2025-06-01", Time: "18:30", CreatedAt: base},
		{ID: "c", Date: "2025-06-01", Time: "18:30", CreatedAt: base.Add(time.Minute)},
		{ID: "a", Date: "2025-06-01", Time: "12:00"},
	}

	sortMeals(meals)

	ids := make([]string, len(meals))
	for i, m := range meals {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}
