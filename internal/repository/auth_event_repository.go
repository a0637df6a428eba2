package repository

import (
	"database/sql"
	"fmt"

	"github.com/pg19/portal-auth/internal/domain"
)

type PostgresAuthEventRepository struct {
	db *sql.DB
}

var _ domain.AuthEventRepository = (*PostgresAuthEventRepository)(nil)

func NewPostgresAuthEventRepository(db *sql.DB) *PostgresAuthEventRepository {
	return &PostgresAuthEventRepository{db: db}
}

func (r *PostgresAuthEventRepository) Create(input domain.CreateAuthEventInput) (*domain.AuthEvent, error) {
	query := `
		INSERT INTO auth_events (channel, event, person_id, identifier, trace_id, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, channel, event, person_id, identifier, trace_id, ip_address, created_at
	`

	var event domain.AuthEvent
	var personID sql.NullInt64

	err := r.db.QueryRow(
		query,
		input.Channel,
		input.Event,
		toNullInt64(input.PersonID),
		input.Identifier,
		input.TraceID,
		input.IPAddress,
	).Scan(
		&event.ID,
		&event.Channel,
		&event.Event,
		&personID,
		&event.Identifier,
		&event.TraceID,
		&event.IPAddress,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth event: %w", err)
	}

	if personID.Valid {
		event.PersonID = &personID.Int64
	}

	return &event, nil
}

func (r *PostgresAuthEventRepository) ListRecent(limit int) ([]domain.AuthEvent, error) {
	query := `
		SELECT id, channel, event, person_id, identifier, trace_id, ip_address, created_at
		FROM auth_events
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list auth events: %w", err)
	}
	defer rows.Close()

	var events []domain.AuthEvent
	for rows.Next() {
		var event domain.AuthEvent
		var personID sql.NullInt64

		err := rows.Scan(
			&event.ID,
			&event.Channel,
			&event.Event,
			&personID,
			&event.Identifier,
			&event.TraceID,
			&event.IPAddress,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auth event: %w", err)
		}
		if personID.Valid {
			event.PersonID = &personID.Int64
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate auth events: %w", err)
	}

	return events, nil
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
