package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "siappa/pkg/domain"
	audit "siappa/pkg/platform/audit"
	"siappa/pkg/platform/tx"
)

// Store writes case events to case_events and, in the same statement batch,
// to the outbox table that the relay worker publishes to Kafka.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts the event and its outbox entry using the transaction in ctx
// when present, so both commit or roll back with the case mutation.
func (s *Store) Append(ctx context.Context, event audit.CaseEvent) error {
	exec := tx.Exec(ctx, s.db)

	var actorID *uuid.UUID
	if !event.ActorID.IsNil() {
		a := uuid.UUID(event.ActorID)
		actorID = &a
	}

	_, err := exec.ExecContext(ctx, `
		INSERT INTO case_events (
			case_id, ticket_code, village_id, action, from_status, to_status,
			referral_agency, actor_id, actor_role, request_id, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(event.CaseID),
		event.TicketCode,
		int(event.VillageID),
		string(event.Action),
		event.FromStatus,
		event.ToStatus,
		event.ReferralAgency,
		actorID,
		event.ActorRole,
		event.RequestID,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert case event: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal case event payload: %w", err)
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, 'case', $2, $3, $4, $5)`,
		uuid.New(),
		event.CaseID.String(),
		string(event.Action),
		payload,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListByCase returns a case's history oldest first.
func (s *Store) ListByCase(ctx context.Context, caseID id.CaseID) ([]audit.CaseEvent, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT case_id, ticket_code, village_id, action, from_status, to_status,
		       referral_agency, actor_id, actor_role, request_id, occurred_at
		FROM case_events
		WHERE case_id = $1
		ORDER BY occurred_at, id`, uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("query case events: %w", err)
	}
	defer rows.Close()

	var events []audit.CaseEvent
	for rows.Next() {
		var (
			e         audit.CaseEvent
			rawCaseID uuid.UUID
			actorID   uuid.NullUUID
			villageID int
			action    string
		)
		if err := rows.Scan(&rawCaseID, &e.TicketCode, &villageID, &action, &e.FromStatus, &e.ToStatus,
			&e.ReferralAgency, &actorID, &e.ActorRole, &e.RequestID, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan case event: %w", err)
		}
		e.CaseID = id.CaseID(rawCaseID)
		e.VillageID = id.VillageID(villageID)
		e.Action = audit.Action(action)
		if actorID.Valid {
			e.ActorID = id.PrincipalID(actorID.UUID)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case events: %w", err)
	}
	return events, nil
}
