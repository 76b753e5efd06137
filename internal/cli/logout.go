package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FilmThanapol/caloriemate-go/internal/client"
)

func init() {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored session tokens",
		Run:   runLogout,
	}

	RootCmd.AddCommand(cmd)
}

func runLogout(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(configPath())
	if err != nil {
		exitErr("logout", err)
	}

	if cfg.API.RefreshToken != "" && cfg.API.ServerURL != "" {
		// Best effort: clearing the local tokens matters more than the
		// server hearing about it.
		if c, err := client.New(cfg.API.ServerURL, "", newLogger(cfg)); err == nil {
			_ = c.Logout(cmd.Context(), cfg.API.RefreshToken)
		}
	}

	cfg.API.AccessToken = ""
	cfg.API.RefreshToken = ""
	if err := saveConfig(configPath(), cfg); err != nil {
		exitErr("logout", err)
	}

	fmt.Println("logged out")
}
