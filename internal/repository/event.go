package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/audit"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type EventRepository struct {
	pool DB
}

func NewEventRepository(pool DB) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) Insert(ctx context.Context, e *audit.Event) error {
	query := `
		INSERT INTO liveness_events (id, event_type, provider, blink_count, liveness_score, ear, request_id, ip_address, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	_, err := r.pool.Exec(ctx, query,
		e.ID,
		string(e.EventType),
		e.Provider,
		e.BlinkCount,
		e.LivenessScore,
		e.EAR,
		e.RequestID,
		e.IPAddress,
		e.UserAgent,
		metadata,
		e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert liveness event: %w", err)
	}

	return nil
}

// ListRecent returns the newest events first. limit is clamped to [1, MaxListLimit].
func (r *EventRepository) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	limit = ClampLimit(limit)

	query := `
		SELECT id, event_type, provider, blink_count, liveness_score, ear, request_id, ip_address, user_agent, metadata, created_at
		FROM liveness_events
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list liveness events: %w", err)
	}
	defer rows.Close()

	events := make([]audit.Event, 0, limit)
	for rows.Next() {
		var (
			e         audit.Event
			eventType string
		)
		if err := rows.Scan(
			&e.ID,
			&eventType,
			&e.Provider,
			&e.BlinkCount,
			&e.LivenessScore,
			&e.EAR,
			&e.RequestID,
			&e.IPAddress,
			&e.UserAgent,
			&e.Metadata,
			&e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan liveness event: %w", err)
		}
		e.EventType = audit.EventType(eventType)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liveness events: %w", err)
	}

	return events, nil
}

func (r *EventRepository) CountByType(ctx context.Context, eventType audit.EventType) (int, error) {
	query := `SELECT COUNT(*) FROM liveness_events WHERE event_type = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, string(eventType)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count liveness events: %w", err)
	}

	return count, nil
}

// Ping verifies database connectivity
func (r *EventRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

var (
	_ EventRepositoryInterface = (*EventRepository)(nil)
	_ audit.Store              = (*EventRepository)(nil)
)
