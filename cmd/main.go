package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"helpdesk/config"
	_ "helpdesk/docs"
	"helpdesk/internal/util"
)

// @title Helpdesk API
// @version 1.0
// @description Аутентификация и управление сессиями helpdesk

// @host localhost:3001

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ошибка: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "helpdesk",
		Short:         "Сервис аутентификации helpdesk",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Путь к yaml файлу конфигурации")

	load := func(ctx context.Context) (*config.AppConfig, error) {
		// .env необязателен
		_ = godotenv.Load()

		cfg, err := config.LoadConfig(ctx, configPath)
		if err != nil {
			return nil, err
		}
		util.SetupLogger(cfg.Log.Level, !cfg.IsProduction())
		return cfg, nil
	}

	cmd.AddCommand(newServeCommand(load))
	cmd.AddCommand(newMigrateCommand(load))
	cmd.AddCommand(newUserCommand(load))
	return cmd
}

type configLoader func(ctx context.Context) (*config.AppConfig, error)

func openDatabase(cfg *config.AppConfig) (*config.Database, func(), error) {
	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("ошибка при закрытии БД")
		}
	}
	return db, closeDB, nil
}
