package system

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Alijeyrad/healthmarket_backend/config"
	"github.com/Alijeyrad/healthmarket_backend/internal/app"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/auth"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/directory"
)

// withServices starts the infra and service graph, hands the populated
// targets to fn and stops the graph afterwards.
func withServices(ctx context.Context, cfg *config.Config, fn func() error, targets ...any) error {
	fxApp := fx.New(
		fx.Supply(cfg),
		app.InfraModule,
		app.ServiceModule,
		fx.Populate(targets...),
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
	)
	if err := fxApp.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = fxApp.Stop(stopCtx)
	}()
	return fn()
}

func NewCreateAdminCommand() *cobra.Command {
	var phone, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account that signs in with phone and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if phone == "" || password == "" {
				return fmt.Errorf("--phone and --password are required")
			}
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			ctx := context.Background()
			var authSvc auth.Service
			return withServices(ctx, cfg, func() error {
				u, err := authSvc.CreateAdmin(ctx, phone, password)
				if err != nil {
					return fmt.Errorf("failed to create admin: %w", err)
				}
				fmt.Printf("Admin %s created with id %s.\n", u.Phone, u.ID)
				return nil
			}, &authSvc)
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Admin phone number")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (at least 8 characters)")

	return cmd
}

func NewReindexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the doctor search index from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			ctx := context.Background()
			var dir directory.Service
			return withServices(ctx, cfg, func() error {
				n, err := dir.SyncIndex(ctx)
				if err != nil {
					return fmt.Errorf("failed to reindex: %w", err)
				}
				fmt.Printf("Indexed %d doctor(s).\n", n)
				return nil
			}, &dir)
		},
	}

	return cmd
}
