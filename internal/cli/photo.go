package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/FilmThanapol/caloriemate-go/internal/client"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "photo <meal-id>",
		Short: "Download or attach a meal photo",
		Long: "Download a meal's photo to a file, or attach one with --attach.\n" +
			"Photos are stored by the server, so this needs api mode.",
		Args: cobra.ExactArgs(1),
		Run:  runPhoto,
	}

	cmd.Flags().String("attach", "", "Photo file to upload")
	cmd.Flags().StringP("out", "o", "", "Output file (default <meal-id>.jpg)")

	RootCmd.AddCommand(cmd)
}

func runPhoto(cmd *cobra.Command, args []string) {
	id := args[0]
	attach, _ := cmd.Flags().GetString("attach")
	out, _ := cmd.Flags().GetString("out")

	runSession(cmd, func(ctx context.Context, s *session) error {
		if attach != "" {
			meal, err := attachPhoto(ctx, s, id, attach)
			if err != nil {
				return err
			}
			fmt.Printf("photo attached to %s (%s)\n", meal.ID, meal.FoodName)
			return nil
		}

		api, ok := s.remote.(*client.Client)
		if !ok {
			return errors.New("photos need api mode; run caloriemate login")
		}

		photo, err := api.Photo(ctx, id)
		if err != nil {
			return err
		}
		defer photo.Close()

		if out == "" {
			out = id + ".jpg"
		}
		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer file.Close()

		if _, err := io.Copy(file, photo); err != nil {
			return fmt.Errorf("failed to save photo: %w", err)
		}
		fmt.Printf("saved photo to %s\n", out)
		return nil
	})
}

// attachPhoto uploads a photo file for a meal. Photos live on the
// server, so this needs api mode.
func attachPhoto(ctx context.Context, s *session, mealID, path string) (model.Meal, error) {
	api, ok := s.remote.(*client.Client)
	if !ok {
		return model.Meal{}, errors.New("photos need api mode; run caloriemate login")
	}

	file, err := os.Open(path)
	if err != nil {
		return model.Meal{}, fmt.Errorf("failed to open photo: %w", err)
	}
	defer file.Close()

	return api.AttachPhoto(ctx, mealID, filepath.Base(path), file)
}
