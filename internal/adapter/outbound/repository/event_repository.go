package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"docingest/internal/domain/entity"
	"docingest/internal/domain/valueobject"
	"docingest/internal/port/outbound"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, job_id, document_id, event_type, severity, code,
	   payload, correlation_id, created_at`

// PostgreSQLEventRepository implements the EventRepository interface. The
// events table is append-only; this repository has no update or delete.
type PostgreSQLEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLEventRepository creates a new PostgreSQL event repository.
func NewPostgreSQLEventRepository(pool *pgxpool.Pool) *PostgreSQLEventRepository {
	return &PostgreSQLEventRepository{pool: pool}
}

// Save appends one event.
func (r *PostgreSQLEventRepository) Save(ctx context.Context, event *entity.Event) error {
	if event == nil {
		return ErrInvalidArgument
	}

	var payload []byte
	if event.Payload() != nil {
		encoded, err := json.Marshal(event.Payload())
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		payload = encoded
	}

	query := `
		INSERT INTO docingest.events (
			id, job_id, document_id, event_type, severity, code,
			payload, correlation_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	qi := GetQueryInterface(ctx, r.pool)
	_, err := qi.Exec(ctx, query,
		event.ID(),
		event.JobID(),
		event.DocumentID(),
		event.Type().String(),
		event.Severity().String(),
		event.Code().String(),
		payload,
		event.CorrelationID(),
		event.Timestamp(),
	)
	if err != nil {
		return WrapError(err, "save event")
	}
	return nil
}

// FindByJobID returns a job's events, oldest first, plus a total count.
func (r *PostgreSQLEventRepository) FindByJobID(
	ctx context.Context,
	jobID uuid.UUID,
	filters outbound.EventFilters,
) ([]*entity.Event, int, error) {
	if jobID == uuid.Nil {
		return nil, 0, ErrInvalidArgument
	}
	return r.list(ctx, "job_id", jobID, filters)
}

// FindByDocumentID returns a document's events across all of its jobs,
// oldest first, plus a total count.
func (r *PostgreSQLEventRepository) FindByDocumentID(
	ctx context.Context,
	documentID uuid.UUID,
	filters outbound.EventFilters,
) ([]*entity.Event, int, error) {
	if documentID == uuid.Nil {
		return nil, 0, ErrInvalidArgument
	}
	return r.list(ctx, "document_id", documentID, filters)
}

func (r *PostgreSQLEventRepository) list(
	ctx context.Context,
	column string,
	id uuid.UUID,
	filters outbound.EventFilters,
) ([]*entity.Event, int, error) {
	if filters.Limit <= 0 || filters.Offset < 0 {
		return nil, 0, ErrInvalidArgument
	}

	baseQuery := "FROM docingest.events WHERE " + column + " = $1"
	selectColumns := "SELECT " + eventColumns

	qi := GetQueryInterface(ctx, r.pool)
	totalCount, rows, err := executeCountAndDataQuery(
		ctx, qi, baseQuery, selectColumns, "",
		"ORDER BY created_at ASC, id ASC",
		[]interface{}{id}, filters.Limit, filters.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	if rows == nil {
		return nil, totalCount, nil
	}
	defer rows.Close()

	var events []*entity.Event
	for rows.Next() {
		event, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, 0, WrapError(scanErr, "scan event row")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, WrapError(err, "iterate event rows")
	}
	return events, totalCount, nil
}

func scanEvent(row pgx.Row) (*entity.Event, error) {
	var (
		id, jobID, documentID      uuid.UUID
		typeStr, severityStr, code string
		payloadBytes               []byte
		correlationID              *string
		createdAt                  time.Time
	)
	err := row.Scan(
		&id, &jobID, &documentID, &typeStr, &severityStr, &code,
		&payloadBytes, &correlationID, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if len(payloadBytes) > 0 {
		if unmarshalErr := json.Unmarshal(payloadBytes, &payload); unmarshalErr != nil {
			return nil, fmt.Errorf("unmarshal event payload: %w", unmarshalErr)
		}
	}

	return entity.RestoreEvent(
		id, jobID, documentID,
		valueobject.EventCode(code),
		valueobject.EventType(typeStr),
		valueobject.EventSeverity(severityStr),
		payload, correlationID, createdAt,
	), nil
}
