package main

import (
	"context"
	"net/url"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inmo_dedup/config"
	"inmo_dedup/dedup"
	"inmo_dedup/logging"
	"inmo_dedup/storage"
)

var (
	cfg     *config.Config
	logFile *logging.RotatingWriter
)

var rootCmd = &cobra.Command{
	Use:   "inmo",
	Short: "Real-estate listing scraper and duplicate detector",
	Long:  "Scrapes portal search pages into a listing store and flags listings that describe the same property.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		w, err := logging.Setup(cfg.Log)
		if err != nil {
			return eris.Wrap(err, "init logger")
		}
		logFile = w

		zap.L().Debug("config loaded", zap.Int("sites", len(cfg.Sites)), zap.String("driver", cfg.Store.Driver))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
		if logFile != nil {
			_ = logFile.Close()
		}
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore connects to the configured backend.
func openStore(ctx context.Context) (storage.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		st, err := storage.NewPostgresStore(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		zap.L().Info("connected to postgres", zap.String("url", maskConnectionString(cfg.Store.DatabaseURL)))
		return st, nil
	default:
		st, err := storage.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		zap.L().Info("sqlite database", zap.String("path", cfg.Store.Path))
		return st, nil
	}
}

func newEngine() *dedup.Engine {
	return dedup.NewEngine(cfg.Rules)
}

// maskConnectionString masks the password in a connection string for logging
func maskConnectionString(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
