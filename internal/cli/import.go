package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import meals and goals from an export file",
		Long: "Import meals and goals from an export file. Pass - to read stdin.\n" +
			"Imported meals get fresh identifiers, so importing the same file twice duplicates them.",
		Args: cobra.ExactArgs(1),
		Run:  runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		exitErr("import", err)
	}

	runSession(cmd, func(ctx context.Context, s *session) error {
		report, err := s.dispatcher.Import(ctx, data)
		if err != nil {
			return err
		}

		fmt.Printf("imported %d meal(s), %d failed\n", report.Imported, report.Failed)
		for _, issue := range report.Issues {
			fmt.Fprintf(os.Stderr, "  meal %d (%s): %v\n", issue.Index, issue.FoodName, issue.Err)
		}
		if report.SettingsErr != nil {
			fmt.Fprintf(os.Stderr, "  goals not applied: %v\n", report.SettingsErr)
		}
		return nil
	})
}
