package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quartz-storefront/internal/app"
	"quartz-storefront/internal/core/auth"
	"quartz-storefront/internal/core/config"
	"quartz-storefront/internal/core/logger"
	"quartz-storefront/internal/domain"
	"quartz-storefront/internal/repo"
	"quartz-storefront/pkg/utils"
	"quartz-storefront/pkg/validate"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "quartzctl",
		Short:         "Operator tooling for the quartz storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default $CONFIG_PATH or ./configs/config.local.yaml)")

	root.AddCommand(
		migrateCmd(&cfgPath),
		hashPasswordCmd(),
		createAdminCmd(&cfgPath),
		versionCmd(),
	)
	return root
}

func loadEnv(cfgPath string) (*config.Config, *zap.Logger, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	l, cleanup := logger.FromConfig(cfg.Log)
	return cfg, l, cleanup, nil
}

func migrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the tables for every entity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, l, cleanup, err := loadEnv(*cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()
			db, err := app.OpenDB(cfg, l)
			if err != nil {
				return err
			}
			if err := repo.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables\n", len(repo.Models()))
			return nil
		},
	}
}

// readSecret takes the first argument, or the first line of stdin when
// there is none, so secrets can stay out of shell history.
func readSecret(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for manual user provisioning",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if err := validate.Var("password", pw, "required,min=6,max=72"); err != nil {
				return err
			}
			hash, err := utils.HashPassword(pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func createAdminCmd(cfgPath *string) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an ADMIN user; the password is read from stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readSecret(cmd.InOrStdin(), nil)
			if err != nil {
				return err
			}
			email = strings.ToLower(strings.TrimSpace(email))
			if err := validate.Var("email", email, "required,email,max=191"); err != nil {
				return err
			}
			if err := validate.Var("password", pw, "required,min=6,max=72"); err != nil {
				return err
			}

			cfg, l, cleanup, err := loadEnv(*cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()
			db, err := app.OpenDB(cfg, l)
			if err != nil {
				return err
			}
			hash, err := utils.HashPassword(pw)
			if err != nil {
				return err
			}
			u := &domain.User{ID: utils.NewID(), Email: email, Name: strings.TrimSpace(name), PasswordHash: hash, Role: auth.RoleAdmin}
			if err := repo.NewUserRepo(db).Create(cmd.Context(), u); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "Admin", "display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "quartzctl version %s\n", Version)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
