package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"microblog/internal/config"
	"microblog/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes accepted in DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan says which of the two schema mechanisms a configuration uses.
type SchemaPlan struct {
	Mode        string
	Driver      string
	Environment string
	SQL         bool
	Auto        bool
}

// SchemaStatus is a SchemaPlan plus migration progress when SQL is in play.
type SchemaStatus struct {
	SchemaPlan
	Applied []int
	Pending []Migration
}

// PlanSchema resolves cfg into a SchemaPlan. The SQL scripts are written for
// Postgres, so SQLite always auto-migrates. AutoMigrate is never allowed to
// touch a production-like database.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: cfg.DBSchemaMode, Driver: cfg.DBDriver, Environment: cfg.Env}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	prod := slices.Contains([]string{"production", "prod", "staging", "stage"}, cfg.Env)

	if cfg.DBDriver == "sqlite" {
		if plan.Mode == SchemaModeSQL {
			return plan, fmt.Errorf("schema mode %q needs the postgres driver", plan.Mode)
		}
		plan.Auto = true
		return plan, nil
	}

	switch plan.Mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeAuto:
		if prod {
			return plan, fmt.Errorf("schema mode %q is not allowed in %s", plan.Mode, cfg.Env)
		}
		plan.Auto = true
	case SchemaModeHybrid:
		plan.SQL, plan.Auto = true, !prod
	default:
		return plan, fmt.Errorf("unknown schema mode %q", plan.Mode)
	}
	return plan, nil
}

// AutoMigrate creates or updates the tables for PersistentModels.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database up to date according to cfg.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}
	if plan.SQL {
		if _, err := NewMigrator(db).Up(ctx); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	}
	if plan.Auto {
		middleware.Logger.Info("Auto-migrating schema",
			slog.String("mode", plan.Mode),
			slog.String("driver", plan.Driver),
		)
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the plan for cfg and, when SQL migrations apply,
// which versions are applied or pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if !plan.SQL {
		return status, nil
	}

	m := NewMigrator(db)
	if status.Applied, err = m.Applied(ctx); err != nil {
		return nil, err
	}
	if status.Pending, err = m.Pending(ctx); err != nil {
		return nil, err
	}
	return status, nil
}
