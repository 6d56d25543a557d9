package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/audit"
)

// DB is the subset of *pgxpool.Pool the repositories use.
// pgxmock.PgxPoolIface satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// EventRepositoryInterface defines operations for liveness event data access
type EventRepositoryInterface interface {
	Insert(ctx context.Context, event *audit.Event) error
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
	CountByType(ctx context.Context, eventType audit.EventType) (int, error)
}
