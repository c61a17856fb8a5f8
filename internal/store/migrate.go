package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/glandu2/rzauth/internal/store/migrations"
)

var gooseOnce sync.Once

// RunMigrations applies every pending goose migration in migrations.FS,
// grounded on internal/db/migrate.go (la2go) — same sql.Open("pgx", dsn) +
// goose.SetBaseFS + goose.UpContext shape, retargeted at this package's own
// accounts/gameservers schema (SPEC_FULL.md §4 supplemented feature #5).
func RunMigrations(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening sql connection for migrations: %w", err)
	}
	defer sqlDB.Close()

	var dialectErr error
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		dialectErr = goose.SetDialect("postgres")
	})
	if dialectErr != nil {
		return fmt.Errorf("setting goose dialect: %w", dialectErr)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
