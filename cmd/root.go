package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/spotter/internal/logging"
	"github.com/andresmejia3/spotter/internal/store"
)

// Options holds shared configuration for the check and inspect commands
type Options struct {
	InputPath      string
	Exercise       string
	Side           string
	NthFrame       int
	NumEngines     int
	ThresholdsPath string
	ReportPath     string
	WorkerScript   string
}

var (
	// DB is the global database connection shared by subcommands.
	// It stays nil when no database is configured; the evaluator works
	// without history, and commands that need the store check for it.
	DB *store.Store
	// dbURL is the connection string
	dbURL string
)

// ErrNoDatabase is returned by history commands when no store is configured.
var ErrNoDatabase = errors.New("no database configured (set --db or POSTGRES_HOST)")

// Version is the application version.
const Version = "0.0.1"

var rootCmd = &cobra.Command{
	Use:     "spotter",
	Short:   "Strength-Training Form Analysis Engine",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init()

		// If no flag was provided, try to build the connection string from the environment
		if dbURL == "" {
			if host := os.Getenv("POSTGRES_HOST"); host != "" {
				user := os.Getenv("POSTGRES_USER")
				pass := os.Getenv("POSTGRES_PASSWORD")
				name := os.Getenv("POSTGRES_DB")
				port := os.Getenv("POSTGRES_PORT")
				if port == "" {
					port = "5432"
				}
				dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
			}
		}

		// No database configured: run without session history
		if dbURL == "" {
			return nil
		}

		// Use the command's context (which will be cancellable) for the connection
		var err error
		DB, err = store.New(cmd.Context(), dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Use Background here because the main context might be cancelled already (due to Ctrl+C)
			// and we still need to send the "Close" command to the DB.
			DB.Close(context.Background())
		}
	},
}

// requireDB guards commands that only make sense with session history.
func requireDB() error {
	if DB == nil {
		return ErrNoDatabase
	}
	return nil
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string for session history (optional)")
}
