package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	tutasdk "github.com/tutasdk/client-go"
)

// Environment fallbacks for the flags of the same name.
const (
	envBaseURL     = "TUTA_BASE_URL"
	envAccessToken = "TUTA_ACCESS_TOKEN"
	envMailGroup   = "TUTA_MAIL_GROUP"
	envGroupKey    = "TUTA_GROUP_KEY"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// Config captures the options shared by all subcommands.
type Config struct {
	BaseURL     string
	AccessToken string
	MailGroup   string
	GroupKey    string
	LogLevel    string
}

// registerFlags attaches the global flags to the root command.
func registerFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("base-url", "", "Backend base URL (falls back to "+envBaseURL+")")
	flags.String("access-token", "", "Session access token (falls back to "+envAccessToken+", then a prompt)")
	flags.String("mail-group", "", "Id of the user's mail group (falls back to "+envMailGroup+")")
	flags.String("group-key", "", "Base64 mail group key (falls back to "+envGroupKey+")")
	flags.String("log-level", "warn", "Logging level: debug, info, warn, error")
}

// loadDotEnv reads a .env file from the working directory if there is one.
// Variables already set in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// loadConfig converts the parsed flags into a Config, filling gaps from the
// environment and prompting for the access token when stdin is a terminal.
func loadConfig(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()

	var cfg Config
	for _, f := range []struct {
		name string
		env  string
		dst  *string
	}{
		{"base-url", envBaseURL, &cfg.BaseURL},
		{"access-token", envAccessToken, &cfg.AccessToken},
		{"mail-group", envMailGroup, &cfg.MailGroup},
		{"group-key", envGroupKey, &cfg.GroupKey},
		{"log-level", "", &cfg.LogLevel},
	} {
		value, err := flags.GetString(f.name)
		if err != nil {
			return Config{}, err
		}
		if value == "" && f.env != "" {
			value = os.Getenv(f.env)
		}
		*f.dst = value
	}

	if cfg.AccessToken == "" {
		token, err := promptToken(cmd.ErrOrStderr())
		if err != nil {
			return Config{}, err
		}
		cfg.AccessToken = token
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func promptToken(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", nil
	}
	if _, err := fmt.Fprint(w, "Access token: "); err != nil {
		return "", err
	}
	token, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	return strings.TrimSpace(string(token)), nil
}

func validateConfig(cfg Config) error {
	if cfg.AccessToken == "" {
		return fmt.Errorf("access token must be provided via --access-token or %s", envAccessToken)
	}
	if cfg.MailGroup == "" {
		return fmt.Errorf("mail group must be provided via --mail-group or %s", envMailGroup)
	}
	if cfg.GroupKey == "" {
		return fmt.Errorf("group key must be provided via --group-key or %s", envGroupKey)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}
	return nil
}

// clientOptions turns cfg into SDK options.
func (cfg Config) clientOptions() ([]tutasdk.Option, error) {
	key, err := tutasdk.ParseSymmetricKey(cfg.GroupKey)
	if err != nil {
		return nil, fmt.Errorf("parse group key: %w", err)
	}
	keys := tutasdk.NewStaticKeyResolver().AddGroupKey(tutasdk.GeneratedID(cfg.MailGroup), key)

	opts := []tutasdk.Option{
		tutasdk.WithAccessToken(cfg.AccessToken),
		tutasdk.WithKeyResolver(keys),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, tutasdk.WithBaseURL(cfg.BaseURL))
	}
	return opts, nil
}
