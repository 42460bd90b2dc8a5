// Command migrate runs schema operations against the configured database.
package main

import (
	"fmt"
	"os"
	"strconv"

	"microblog/internal/config"
	"microblog/internal/database"
	"microblog/internal/middleware"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the microblog database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(upCmd, downCmd, statusCmd, autoCmd)
}

// connect loads configuration and opens the database without applying any schema.
func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	middleware.ConfigureLogger(cfg.Env, os.Stderr)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, db, nil
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending SQL migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		done, err := database.NewMigrator(db).Up(cmd.Context())
		for _, m := range done {
			cmd.Printf("applied %s\n", m)
		}
		if err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		if len(done) == 0 {
			cmd.Println("schema is up to date")
		}
		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down [version]",
	Short: "Roll back one migration, the latest applied when no version is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		version := 0
		if len(args) == 1 {
			if version, err = strconv.Atoi(args[0]); err != nil || version <= 0 {
				return fmt.Errorf("invalid version %q", args[0])
			}
		}
		m, err := database.NewMigrator(db).Down(cmd.Context(), version)
		if err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		if m == nil {
			cmd.Println("nothing to roll back")
			return nil
		}
		cmd.Printf("rolled back %s\n", m)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schema mode and pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		status, err := database.GetSchemaStatus(cmd.Context(), db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		cmd.Printf("driver=%s mode=%s env=%s sql=%t auto=%t applied=%d pending=%d\n",
			status.Driver, status.Mode, status.Environment, status.SQL, status.Auto,
			len(status.Applied), len(status.Pending))
		for _, m := range status.Pending {
			cmd.Printf("pending: %s\n", m)
		}
		return nil
	},
}

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Run GORM AutoMigrate (refused in production)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		cmd.Println("automigrations applied")
		return nil
	},
}
