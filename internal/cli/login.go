package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FilmThanapol/caloriemate-go/internal/client"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a caloriemate server and switch to api mode",
		Long: "Log in to a caloriemate server and switch to api mode.\n" +
			"The token pair is stored in the config file and rotated transparently afterwards.",
		Run: runLogin,
	}

	cmd.Flags().StringP("server", "s", "", "Server base URL (default from config)")
	cmd.Flags().StringP("email", "e", "", "Account email (required)")
	cmd.Flags().StringP("password", "p", "", "Account password (required)")
	cmd.Flags().Bool("register", false, "Create the account first")

	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	RootCmd.AddCommand(cmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	server, _ := cmd.Flags().GetString("server")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	register, _ := cmd.Flags().GetBool("register")

	cfg, err := loadConfig(configPath())
	if err != nil {
		exitErr("login", err)
	}
	if server != "" {
		cfg.API.ServerURL = server
	}
	if cfg.API.ServerURL == "" {
		exitErr("login", fmt.Errorf("no server URL; pass --server"))
	}

	c, err := client.New(cfg.API.ServerURL, "", newLogger(cfg))
	if err != nil {
		exitErr("login", err)
	}

	ctx := cmd.Context()
	var pair model.TokenPair
	if register {
		pair, err = c.Register(ctx, email, password)
	} else {
		pair, err = c.Login(ctx, email, password)
	}
	if err != nil {
		exitErr("login", err)
	}

	cfg.Mode = ModeAPI
	cfg.API.AccessToken = pair.AccessToken
	cfg.API.RefreshToken = pair.RefreshToken
	if err := saveConfig(configPath(), cfg); err != nil {
		exitErr("login", err)
	}

	fmt.Printf("logged in to %s as %s\n", cfg.API.ServerURL, email)
}
