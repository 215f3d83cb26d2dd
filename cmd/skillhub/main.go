package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillhub/pkg/logger"
	"github.com/jingkaihe/skillhub/pkg/presenter"
	"github.com/jingkaihe/skillhub/pkg/registry"
	"github.com/jingkaihe/skillhub/pkg/store"
)

var out = presenter.New()

func init() {
	// Environment variables
	viper.SetEnvPrefix("SKILLHUB")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillhub")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()

	viper.SetDefault("store.backend", "bbolt")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
}

var rootCmd = &cobra.Command{
	Use:   "skillhub",
	Short: "A namespaced, versioned registry for markdown skills",
	Long: `skillhub publishes immutable markdown skills under a @namespace/name
identity, versioned by semantic version, and serves them back by exact
version or resolved latest.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			return err
		}
		logger.SetLogFormat(viper.GetString("log_format"))
		out.SetQuiet(viper.GetBool("quiet"))
		return nil
	},
}

// openRegistry builds an engine over the configured store backend. The
// caller must close the returned store.
func openRegistry(ctx context.Context) (*registry.Registry, store.Store, error) {
	config := &store.Config{
		Backend: viper.GetString("store.backend"),
		Path:    viper.GetString("store.path"),
	}
	if config.Path == "" {
		defaults, err := store.DefaultConfig()
		if err != nil {
			return nil, nil, err
		}
		config.Path = defaults.Path
	}

	s, err := store.New(ctx, config)
	if err != nil {
		return nil, nil, err
	}

	reg, err := registry.New(s)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return reg, s, nil
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text or json)")
	rootCmd.PersistentFlags().String("store-backend", "bbolt", "Store backend (memory, filesystem, bbolt, sqlite)")
	rootCmd.PersistentFlags().String("store-path", "", "Store path (directory or database file)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress informational output")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("store.backend", rootCmd.PersistentFlags().Lookup("store-backend"))
	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store-path"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		out.Error(err, "")
		os.Exit(1)
	}
}
