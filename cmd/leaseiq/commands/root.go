// Package commands wires the leaseiq CLI.
package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leaseiq/leaseiq/internal/analysis"
	"github.com/leaseiq/leaseiq/internal/client"
	"github.com/leaseiq/leaseiq/internal/session"
	"github.com/leaseiq/leaseiq/internal/session/localstore"
	"github.com/leaseiq/leaseiq/pkg/logger"
)

var (
	serverURL   string
	analysisURL string
	statePath   string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "leaseiq",
	Short: "Analyze and negotiate vehicle lease contracts from the terminal",
	Long: `leaseiq talks to the LeaseIQ API server and the contract analysis backend.
Upload a lease PDF, chat about its terms, practice against simulated dealers,
and check market pricing by VIN.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:5000", "LeaseIQ API server URL")
	rootCmd.PersistentFlags().StringVar(&analysisURL, "analysis", "http://127.0.0.1:8000/api", "Analysis backend URL")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "Path to the local state file (default ~/.leaseiq/state.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		NewLoginCommand(),
		NewSignupCommand(),
		NewLogoutCommand(),
		NewChatCommand(),
		NewSimulateCommand(),
		NewLeasesCommand(),
		NewVinCommand(),
		NewCompareCommand(),
	)
}

// app bundles everything a command needs: the session controller restored
// from local state, and clients for both backends.
type app struct {
	log     *logger.Logger
	ctrl    *session.Controller
	api     *client.Client
	backend *analysis.Client
}

func newApp(ctx context.Context) (*app, error) {
	log, err := logger.New(logLevel)
	if err != nil {
		return nil, err
	}

	path := statePath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".leaseiq", "state.json")
	}

	local, err := localstore.Open(path)
	if err != nil {
		return nil, err
	}

	api := client.New(serverURL)
	ctrl := session.New(local, api, log)
	api.SetTokenSource(ctrl.Token)
	ctrl.Bootstrap(ctx)

	return &app{
		log:     log,
		ctrl:    ctrl,
		api:     api,
		backend: analysis.NewClient(analysisURL, log),
	}, nil
}
