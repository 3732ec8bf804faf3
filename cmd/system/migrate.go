package system

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/authorize"
	"github.com/Alijeyrad/healthmarket_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations and seed the default casbin policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			if timeout <= 0 {
				timeout = 30 * time.Second
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			pool, err := database.OpenPool(ctx, database.FromCentralConfig(cfg.Database))
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := database.NewMigrator(pool, repo.Migrations())

			if statusOnly {
				status, err := migrator.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to read migration status: %w", err)
				}
				for _, s := range status {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Printf("%04d  %-40s %s\n", s.Version, s.Name, state)
				}
				return nil
			}

			fmt.Println("Running migrations for the application database.")
			n, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", n)

			// casbin db
			fmt.Println("Preparing casbin policies.")
			authCfg := authorize.FromCentralConfig(cfg.Authorization)
			enforcer, cleanup, err := authorize.NewEnforcer(authCfg, database.CasbinConfig(cfg).DSN())
			if err != nil {
				return fmt.Errorf("failed to create enforcer: %w", err)
			}
			defer cleanup(context.Background())

			auth, err := authorize.NewAuthorization(enforcer, authCfg.SuperadminBypass)
			if err != nil {
				return fmt.Errorf("failed to create authorization: %w", err)
			}

			slog.Info("seeding casbin policies")
			if err := authorize.SeedDefaultPolicies(ctx, auth); err != nil {
				return fmt.Errorf("failed to seed policies: %w", err)
			}

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "Only print which migrations are applied")

	return cmd
}
