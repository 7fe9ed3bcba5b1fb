package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nexus/internal/app"
)

var (
	appCtx *app.App

	home      string
	relayURL  string
	cipher    string
	logLevel  string
	logFormat string
)

// Execute runs the root command.
func Execute() error {
	return newRoot().Execute()
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "nexus",
		Short:        "Chat over a key agreed by neural synchronization",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("home") {
				cfg.Home = home
			}
			if flags.Changed("relay") {
				cfg.RelayURL = relayURL
			}
			if flags.Changed("cipher") {
				cfg.Cipher = cipher
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("log-format") {
				cfg.LogFormat = logFormat
			}

			log, err := app.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return fmt.Errorf("create home: %w", err)
			}
			w, err := app.NewWire(cfg, log)
			if err != nil {
				return err
			}
			appCtx = app.New(w)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&home, "home", "", "state dir (default ~/.nexus, env NEXUS_HOME)")
	pf.StringVar(&relayURL, "relay", "", "relay base URL (env NEXUS_RELAY_URL)")
	pf.StringVar(&cipher, "cipher", "", "aes-256-gcm or chacha20-poly1305 (env NEXUS_CIPHER)")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (env NEXUS_LOG_LEVEL)")
	pf.StringVar(&logFormat, "log-format", "", "text or json (env NEXUS_LOG_FORMAT)")

	root.AddCommand(createCmd(), statusCmd(), healthCmd(), chatCmd())
	return root
}
