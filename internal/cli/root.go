// Package cli exposes the gateway core as the gradebook command.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/app"
	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/pkg/config"
	"github.com/noah-isme/sma-gradebook/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "gradebook",
	Short:         "Grade tracking gateway",
	Long:          "gradebook serves the grade service to students and teachers and keeps answering while it is down.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("backend", "", "Grade service base URL (overrides BACKEND_BASE_URL)")
	rootCmd.PersistentFlags().Bool("no-fallback", false, "Fail instead of answering from fallback data")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(probeCmd)
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Backend.BaseURL = backend
	}
	if off, _ := cmd.Flags().GetBool("no-fallback"); off {
		cfg.Fallback.Enabled = false
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return l, nil
}

// openApp builds the core for one-shot commands. Sessions stay in process.
func openApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	l, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, l, app.Options{MemorySessions: true})
}

// signIn logs in and resolves the session the same way the gateway middleware does.
func signIn(ctx context.Context, a *app.App, username, password string) (models.Session, error) {
	resp, err := a.Auth.Login(ctx, models.LoginRequest{Username: username, Password: password})
	if err != nil {
		return models.Session{}, err
	}
	claims, err := a.Auth.ValidateToken(resp.AccessToken)
	if err != nil {
		return models.Session{}, err
	}
	return a.Auth.Session(ctx, claims)
}

func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("username", "u", "", "Account username")
	cmd.Flags().StringP("password", "p", "", "Account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
}

func credentials(cmd *cobra.Command) (string, string) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	return username, password
}
