package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"helpdesk/config"
	"helpdesk/internal/model"
	"helpdesk/internal/ports"
	"helpdesk/internal/repository"
	"helpdesk/internal/security"
	"helpdesk/internal/service"
)

func newUserCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Управление учетными записями",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newUserCreateCommand(load))
	cmd.AddCommand(newUserDeactivateCommand(load))
	return cmd
}

func newUserCreateCommand(load configLoader) *cobra.Command {
	var (
		email    string
		password string
		name     string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Создать пользователя с указанной ролью",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := load(ctx)
			if err != nil {
				return err
			}
			db, closeDB, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			var displayName *string
			if name != "" {
				displayName = &name
			}

			user, err := newCLIUserService(cfg, db, nil).
				CreateUser(ctx, email, password, displayName, model.Role(strings.ToUpper(role)))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "создан пользователь %s (%s, %s)\n", user.Email, user.ID, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email пользователя")
	cmd.Flags().StringVar(&password, "password", "", "Пароль")
	cmd.Flags().StringVar(&name, "name", "", "Отображаемое имя")
	cmd.Flags().StringVar(&role, "role", string(model.RoleUser), "Роль: USER, ADMIN или SUPPORT")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserDeactivateCommand(load configLoader) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Деактивировать пользователя и отозвать все его сессии",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := load(ctx)
			if err != nil {
				return err
			}
			db, closeDB, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			var cache ports.UserCache
			if cfg.RedisConfig.Addr != "" {
				redisClient, err := config.SetupRedis(&cfg.RedisConfig)
				if err != nil {
					log.Warn().Err(err).Msg("Redis недоступен, профиль останется в кэше до истечения TTL")
				} else {
					defer redisClient.Close()
					cache = repository.NewCacheRepository(redisClient.Client, cfg.RedisConfig.TTL)
				}
			}

			if err := newCLIUserService(cfg, db, cache).DeactivateUser(ctx, email); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "пользователь %s деактивирован\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email пользователя")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newCLIUserService(cfg *config.AppConfig, db *config.Database, cache ports.UserCache) *service.UserService {
	return service.NewUserService(
		db,
		repository.NewUserRepository(),
		repository.NewJWTRepository(),
		security.NewBcryptHasher(cfg.Security.BcryptCost, cfg.Security.HashConcurrency),
		cache,
	)
}
