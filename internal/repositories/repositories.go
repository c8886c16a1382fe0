// Package repositories wires the per-collection SQLite repositories to one
// local database handle and runs schema migrations on open.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/tbellec/flashdeck/internal/migrations"
	"github.com/tbellec/flashdeck/internal/repositories/cards"
	"github.com/tbellec/flashdeck/internal/repositories/courses"
	"github.com/tbellec/flashdeck/internal/repositories/deletions"
	"github.com/tbellec/flashdeck/internal/repositories/history"
	"github.com/tbellec/flashdeck/internal/repositories/memos"
	"github.com/tbellec/flashdeck/internal/repositories/progress"
	"github.com/tbellec/flashdeck/internal/repositories/subjects"
	"github.com/tbellec/flashdeck/internal/repositories/syncstate"
)

// Repositories bundles the collection repositories bound to the shared
// database handle. Transactional flows rebind individual repositories to a
// dbx.DBTX obtained from dbx.WithTx.
type Repositories struct {
	DB        *sql.DB
	Cards     cards.Repository
	Subjects  subjects.Repository
	Courses   courses.Repository
	Memos     memos.Repository
	Progress  progress.Repository
	History   history.Repository
	Deletions deletions.Repository
	SyncState syncstate.Repository
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if necessary) the local database, migrates the
// schema, and returns the bound repositories.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Repositories{
		DB:        db,
		Cards:     cards.NewSQLiteRepository(db),
		Subjects:  subjects.NewSQLiteRepository(db),
		Courses:   courses.NewSQLiteRepository(db),
		Memos:     memos.NewSQLiteRepository(db),
		Progress:  progress.NewSQLiteRepository(db),
		History:   history.NewSQLiteRepository(db),
		Deletions: deletions.NewSQLiteRepository(db),
		SyncState: syncstate.NewSQLiteRepository(db),
	}, nil
}

// Close closes the underlying database handle.
func (r *Repositories) Close() error {
	return r.DB.Close()
}
