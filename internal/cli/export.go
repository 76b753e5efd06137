package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all meals and goals as JSON",
		Run:   runExport,
	}

	cmd.Flags().StringP("out", "o", "", "Write to a file instead of stdout")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	out, _ := cmd.Flags().GetString("out")

	runSession(cmd, func(ctx context.Context, s *session) error {
		data, err := s.dispatcher.Export()
		if err != nil {
			return err
		}

		if out == "" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Printf("exported to %s\n", out)
		return nil
	})
}
