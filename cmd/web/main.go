package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/piranna/projectlint/pkg/server"
	"github.com/piranna/projectlint/pkg/services/config"
	"github.com/piranna/projectlint/pkg/services/engine"
	"github.com/piranna/projectlint/pkg/services/rules"
	"github.com/piranna/projectlint/pkg/services/scheduler"
	"github.com/piranna/projectlint/pkg/store/duckdb"
	"github.com/piranna/projectlint/pkg/store/duckdb/history"
)

var dbPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the projectlint web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&dbPath, "db", "d", "projectlint.db",
		"Path to the run-history database file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: dbPath})
	if err != nil {
		return fmt.Errorf("failed to open run-history database: %w", err)
	}

	historyStore, err := history.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create history store: %w", err)
	}

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr:            net.JoinHostPort(host, port),
		ShutdownTimeout: 10 * time.Second,
		Dependencies: server.Dependencies{
			Runner:   engine.New(scheduler.NewExecutor(), config.NewFileResolver()),
			Registry: rules.DefaultRegistry(),
			History:  historyStore,
		},
	})

	return api.Start()
}
