package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"microblog/internal/middleware"

	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedFS embed.FS

// Embedded holds the SQL migrations compiled into the binary.
var Embedded = mustParseMigrations(embeddedFS)

// Migration is one versioned schema change with its rollback script.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// schemaMigration records an applied version.
type schemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (schemaMigration) TableName() string { return "schema_migrations" }

const createSchemaMigrationsSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func mustParseMigrations(fsys fs.FS) []Migration {
	ms, err := ParseMigrations(fsys)
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return ms
}

// ParseMigrations collects NNNNNN_name.up.sql files under migrations/ in fsys.
// Every up script needs a matching .down.sql. Files that do not follow the
// naming scheme are skipped.
func ParseMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		stem, ok := strings.CutSuffix(e.Name(), ".up.sql")
		if e.IsDir() || !ok {
			continue
		}
		num, name, ok := strings.Cut(stem, "_")
		version, convErr := strconv.Atoi(num)
		if !ok || convErr != nil {
			middleware.Logger.Warn("Ignoring misnamed migration", slog.String("file", e.Name()))
			continue
		}

		up, err := fs.ReadFile(fsys, path.Join("migrations", e.Name()))
		if err != nil {
			return nil, err
		}
		down, err := fs.ReadFile(fsys, path.Join("migrations", stem+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", stem, err)
		}
		out = append(out, Migration{Version: version, Name: name, Up: string(up), Down: string(down)})
	}

	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}

// Migrator applies and reverts a fixed set of migrations, tracking progress in
// the schema_migrations table.
type Migrator struct {
	db  *gorm.DB
	set []Migration
}

// NewMigrator returns a Migrator over the embedded migrations.
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{db: db, set: Embedded}
}

// Find returns the migration with the given version.
func (m *Migrator) Find(version int) (Migration, bool) {
	i := slices.IndexFunc(m.set, func(mg Migration) bool { return mg.Version == version })
	if i < 0 {
		return Migration{}, false
	}
	return m.set[i], true
}

// Applied lists applied versions in ascending order. A database that has
// never been migrated reports none.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	var versions []int
	err := m.db.WithContext(ctx).Model(&schemaMigration{}).Order("version").Pluck("version", &versions).Error
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return versions, nil
}

// Pending returns migrations that have not been applied yet.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, mg := range m.set {
		if !slices.Contains(applied, mg.Version) {
			out = append(out, mg)
		}
	}
	return out, nil
}

// Up applies every pending migration in order. Each script runs in its own
// transaction together with its schema_migrations row.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	if err := m.db.WithContext(ctx).Exec(createSchemaMigrationsSQL).Error; err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.checkKnown(applied); err != nil {
		return nil, err
	}

	var done []Migration
	for _, mg := range m.set {
		if slices.Contains(applied, mg.Version) {
			continue
		}
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mg.Up).Error; err != nil {
				return fmt.Errorf("apply %s: %w", mg, err)
			}
			return tx.Create(&schemaMigration{Version: mg.Version, Name: mg.Name}).Error
		})
		if err != nil {
			return done, err
		}
		middleware.Logger.Info("Migration applied", slog.String("migration", mg.String()))
		done = append(done, mg)
	}
	return done, nil
}

// Down reverts one applied migration. Version 0 selects the latest applied
// one; if nothing is applied Down returns nil and no error.
func (m *Migrator) Down(ctx context.Context, version int) (*Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		if len(applied) == 0 {
			return nil, nil
		}
		version = applied[len(applied)-1]
	} else if !slices.Contains(applied, version) {
		return nil, fmt.Errorf("migration %d has not been applied", version)
	}

	mg, ok := m.Find(version)
	if !ok {
		return nil, fmt.Errorf("migration %d is not known to this build", version)
	}
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mg.Down).Error; err != nil {
			return fmt.Errorf("revert %s: %w", mg, err)
		}
		return tx.Where("version = ?", version).Delete(&schemaMigration{}).Error
	})
	if err != nil {
		return nil, err
	}
	middleware.Logger.Info("Migration reverted", slog.String("migration", mg.String()))
	return &mg, nil
}

// checkKnown refuses to run against a database migrated by a newer build.
func (m *Migrator) checkKnown(applied []int) error {
	var unknown []string
	for _, v := range applied {
		if _, ok := m.Find(v); !ok {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("database has migrations this build does not know: %s", strings.Join(unknown, ", "))
	}
	return nil
}

func isMissingTable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}
