package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"yatube/internal/config"
	"yatube/internal/repository/sqldb"
)

var (
	configDir string
	logLevel  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "yatube",
	Short:        "Blogging site with groups, comments and follows",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding config.{yaml,toml,json}")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	groupCmd.AddCommand(groupCreateCmd)
	userCmd.AddCommand(userCreateCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(serveCmd, groupCmd, userCmd, cacheCmd)
}

func newLogger() (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)
	return logger, nil
}

func loadConfig() (config.Config, error) {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openRepositories opens the configured database and creates the schema.
// The caller closes the returned handle.
func openRepositories(ctx context.Context, cfg config.Config) (*sqldb.DB, *sqldb.Repositories, error) {
	db, err := sqldb.Open(ctx, cfg.Database.Driver, cfg.Database.Path, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	repos := sqldb.NewRepositories(db)
	if err := repos.Init(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init schema: %w", err)
	}
	return db, repos, nil
}
