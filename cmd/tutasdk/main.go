// Command tutasdk reads and decrypts mail entities from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	tutasdk "github.com/tutasdk/client-go"
)

const commandTimeout = 60 * time.Second

// clientFactory builds the SDK client for a command. Tests swap it to point
// at an in-memory backend.
type clientFactory func(cfg Config, logger zerolog.Logger) (*tutasdk.Client, error)

func defaultClientFactory(cfg Config, logger zerolog.Logger) (*tutasdk.Client, error) {
	opts, err := cfg.clientOptions()
	if err != nil {
		return nil, err
	}
	return tutasdk.New(append(opts, tutasdk.WithLogger(logger))...)
}

func main() {
	if err := loadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(defaultClientFactory).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(newClient clientFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tutasdk",
		Short:         "Read and decrypt entities of an end-to-end encrypted mailbox",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	registerFlags(rootCmd)

	rootCmd.AddCommand(newFoldersCmd(newClient), newMailCmd(newClient))
	return rootCmd
}

// session is what every subcommand needs after flag parsing.
type session struct {
	client *tutasdk.Client
	user   tutasdk.UserContext
	logger zerolog.Logger
}

func openSession(cmd *cobra.Command, newClient clientFactory) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &session{
		client: client,
		user:   tutasdk.UserContext{MailGroup: tutasdk.GeneratedID(cfg.MailGroup)},
		logger: logger,
	}, nil
}

func setupLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, commandTimeout)
}
