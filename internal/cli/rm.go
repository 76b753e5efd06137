package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <meal-id>",
		Short: "Delete a meal",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	id := args[0]

	runSession(cmd, func(ctx context.Context, s *session) error {
		if err := s.dispatcher.DeleteMeal(ctx, id); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", id)
		return nil
	})
}
