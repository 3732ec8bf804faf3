package system

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/healthmarket_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the application and casbin databases if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			names := cfg.Server.Databases
			if len(names) == 0 {
				names = []string{cfg.Database.DBName}
				if cfg.CasbinDatabase.DBName != "" && cfg.CasbinDatabase.DBName != cfg.Database.DBName {
					names = append(names, cfg.CasbinDatabase.DBName)
				}
			}

			fmt.Println("Initializing databases...")
			if err := database.InitializeDatabases(context.Background(), database.FromCentralConfig(cfg.Database), names); err != nil {
				return fmt.Errorf("failed to initialize databases: %w", err)
			}
			fmt.Println("Databases initialized successfully.")
			return nil
		},
	}

	return cmd
}
