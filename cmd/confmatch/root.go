package main

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"confmatch/pkg/api"
	"confmatch/pkg/config"
	"confmatch/pkg/logger"
	"confmatch/pkg/session"
	"confmatch/pkg/telemetry"
)

var (
	flagConfig string
	flagAPI    string
	flagCache  string

	cfg  *config.Config
	sess *session.Session
)

var rootCmd = &cobra.Command{
	Use:           "confmatch",
	Short:         "Conference matchmaking client",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load(".env")

		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}
		// flags win over env and file
		if flagAPI != "" {
			cfg.API.BaseURL = flagAPI
			cfg.Socket.URL = config.SocketURLFromAPI(flagAPI)
		}
		if flagCache != "" {
			cfg.Cache.Path = flagCache
		}
		logger.InitWithLevel(cfg.Logging.Level)
		if cfg.Metrics.Enabled && cfg.Metrics.Addr != "" {
			telemetry.Serve(cfg.Metrics.Addr)
		}
		sess = session.New()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "confmatch.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagAPI, "api", "", "REST base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagCache, "cache", "", "local cache directory (overrides config)")
	rootCmd.AddCommand(loginCmd, logoutCmd, chatCmd, contactCmd, questionnaireCmd, healthCmd, versionCmd)
}

// sessionPath is where the token file lives, next to the cache.
func sessionPath() string {
	return filepath.Join(cfg.Cache.Path, "session.json")
}

// resumeSession loads the persisted token file and builds a client.
func resumeSession() (*api.Client, error) {
	if err := sess.LoadFile(sessionPath()); err != nil {
		return nil, fmt.Errorf("not signed in (run `confmatch login` first): %w", err)
	}
	return api.New(cfg.API, sess), nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}
