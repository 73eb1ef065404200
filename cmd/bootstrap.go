package main

import (
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/postgres"
	"github.com/YelzhanWeb/repairdesk/internal/app/auth"
)

const adminPasswordEnv = "REPAIRDESK_ADMIN_PASSWORD"

var (
	adminEmail string
	adminName  string
)

var bootstrapAdminCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Create the first administrator account",
	Long: "Create the first administrator account. The password is read from " + adminPasswordEnv +
		" so it does not end up in shell history. Fails if an administrator already exists.",
	RunE: func(cmd *cobra.Command, args []string) error {
		password := os.Getenv(adminPasswordEnv)
		if password == "" {
			return fmt.Errorf("%s is required", adminPasswordEnv)
		}

		cfg, lgr, err := setup("bootstrap-admin")
		if err != nil {
			return err
		}

		db, err := postgres.Connect(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer db.Close()

		if _, err := postgres.Migrate(cmd.Context(), db); err != nil {
			return err
		}

		svc := auth.NewService(postgres.NewProfileRepository(db), postgres.NewInviteRepository(db), clockwork.NewRealClock(), lgr)
		p, err := svc.BootstrapAdmin(cmd.Context(), adminEmail, adminName, password)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Administrator %s created (id %s)\n", p.Email, p.ID)
		return nil
	},
}

func init() {
	bootstrapAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Administrator email")
	bootstrapAdminCmd.Flags().StringVar(&adminName, "name", "", "Administrator full name")
	_ = bootstrapAdminCmd.MarkFlagRequired("email")
	_ = bootstrapAdminCmd.MarkFlagRequired("name")
}
