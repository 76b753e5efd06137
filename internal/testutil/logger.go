package testutil

import (
	"io"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
)

func MakeNoopLogger() *logger.Logger {
	return logger.NewTo(io.Discard, 0)
}
