package main

import (
	"context"
	"fmt"
	"os"

	"gymledger/internal/admin"
	"gymledger/internal/config"
	"gymledger/internal/db"
	"gymledger/internal/logger"

	"github.com/spf13/cobra"
)

type createFunc func(ctx context.Context, req admin.CreateAdminRequest) (*admin.Admin, error)

func newRootCmd(create createFunc) *cobra.Command {
	var req admin.CreateAdminRequest

	cmd := &cobra.Command{
		Use:   "add-admin",
		Short: "Create a gym admin account",
		Long: `Creates an admin who can sign in to the API and manage one gym.
Use it to bootstrap the first admin; later admins can be added over HTTP.

The password may be passed with --password or the ADMIN_PASSWORD variable.`,
		Example: `  add-admin --gym ironhouse --name "Ravi Kumar" --email ravi@ironhouse.in \
    --phone 9876543210 --gender male`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = os.Getenv("ADMIN_PASSWORD")
			}

			a, err := create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s) for gym %s\n", a.ID, a.Email, a.GymID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.GymID, "gym", "", "gym id the admin manages")
	flags.StringVar(&req.Name, "name", "", "full name")
	flags.StringVar(&req.Email, "email", "", "login email")
	flags.StringVar(&req.Phone, "phone", "", "10-digit phone number")
	flags.StringVar(&req.Gender, "gender", "", "male or female")
	flags.StringVar(&req.Password, "password", "", "login password (at least 8 characters)")
	for _, name := range []string{"gym", "name", "email", "phone", "gender"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	service := admin.NewService(admin.NewRepository(database), cfg.JWTSecret)
	if err := newRootCmd(service.CreateAdmin).ExecuteContext(context.Background()); err != nil {
		database.Close()
		os.Exit(1)
	}
}
