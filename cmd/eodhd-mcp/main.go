// Command eodhd-mcp runs the EODHD MCP server. It speaks MCP over stdio for
// local clients and over HTTP (with OAuth) for remote ones, and ships a
// helper for generating the JWT signing secret.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eodhd/eodhd-mcp/pkg/config"
	"github.com/eodhd/eodhd-mcp/pkg/oauth"
	"github.com/eodhd/eodhd-mcp/pkg/server"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	var logLevel string

	root := &cobra.Command{
		Use:           "eodhd-mcp",
		Short:         "MCP server exposing the EODHD financial data API as tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default ./.env when present)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	loadConfig := func() (config.Config, error) {
		cfg, err := config.Load(envFile)
		if err != nil {
			return config.Config{}, err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		setupLogging(cfg.LogLevel)
		return cfg, nil
	}

	root.AddCommand(newServeCmd(loadConfig))
	root.AddCommand(newStdioCmd(loadConfig))
	root.AddCommand(newGenSecretCmd(&envFile))
	root.AddCommand(newVersionCmd())
	return root
}

func newServeCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over HTTP with OAuth (auth at /, legacy at /v1/mcp, OAuth at /v2/mcp)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log.Info().
				Str("version", versionString()).
				Str("api_base", cfg.APIBase).
				Msg("starting EODHD MCP server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, Version, log.Logger).Run(ctx)
		},
	}
}

func newStdioCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over stdin/stdout for local clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return server.New(cfg, Version, log.Logger).ServeStdio()
		},
	}
}

func newGenSecretCmd(envFile *string) *cobra.Command {
	var numBytes int
	var write bool

	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Generate a JWT signing secret for OAuth mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			if numBytes < 32 {
				return errors.Errorf("secret must be at least 32 bytes, got %d", numBytes)
			}
			secret := oauth.RandomToken(numBytes)

			if write {
				target := *envFile
				if target == "" {
					target = ".env"
				}
				if err := writeEnvSecret(target, secret); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "JWT_SECRET written to %s\n", target)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
	cmd.Flags().IntVar(&numBytes, "bytes", 48, "Number of random bytes in the secret")
	cmd.Flags().BoolVar(&write, "write", false, "Write JWT_SECRET into the env file instead of printing it")
	return cmd
}

// writeEnvSecret sets JWT_SECRET in the env file, replacing an existing entry
// or appending one. The rest of the file is left untouched.
func writeEnvSecret(path, secret string) error {
	line := "JWT_SECRET=" + secret

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to read %s", path)
		}
		return errors.Wrapf(os.WriteFile(path, []byte(line+"\n"), 0600), "failed to write %s", path)
	}

	lines := strings.Split(string(data), "\n")
	replaced := false
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "JWT_SECRET=") {
			lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines[len(lines)-1] = line
			lines = append(lines, "")
		} else {
			lines = append(lines, line, "")
		}
	}
	return errors.Wrapf(os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0600), "failed to write %s", path)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
}

func setupLogging(level string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	// Console writer on stderr keeps stdout clean for the stdio transport.
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

func versionString() string {
	if Version == "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime)
	}
	return fmt.Sprintf("v%s (commit: %s, built: %s)", Version, GitCommit, BuildTime)
}
