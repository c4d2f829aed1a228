// Package audit is the append-only case event log. Every case mutation writes
// an event in the same transaction as the mutation, so history survives even
// a hard delete of the case row.
package audit

import (
	"context"
	"time"

	id "siappa/pkg/domain"
)

// Action names what happened to a case.
type Action string

const (
	ActionCaseCreated   Action = "case_created"
	ActionStatusChanged Action = "status_changed"
	ActionNotesUpdated  Action = "notes_updated"
	ActionCaseDeleted   Action = "case_deleted"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionCaseCreated, ActionStatusChanged, ActionNotesUpdated, ActionCaseDeleted:
		return true
	}
	return false
}

// CaseEvent is one entry of a case's history. It carries no reporter PII.
type CaseEvent struct {
	CaseID     id.CaseID    `json:"case_id"`
	TicketCode string       `json:"ticket_code"`
	VillageID  id.VillageID `json:"village_id"`
	Action     Action       `json:"action"`
	FromStatus string       `json:"from_status,omitempty"`
	ToStatus   string       `json:"to_status,omitempty"`
	// ReferralAgency records the receiving agency on referral events; the case
	// row drops it once the referral ends.
	ReferralAgency string         `json:"referral_agency,omitempty"`
	ActorID        id.PrincipalID `json:"actor_id"`
	ActorRole      string         `json:"actor_role,omitempty"`
	RequestID      string         `json:"request_id,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

// Store persists case events. Append must join the caller's transaction when
// one is carried in ctx.
type Store interface {
	Append(ctx context.Context, event CaseEvent) error
	ListByCase(ctx context.Context, caseID id.CaseID) ([]CaseEvent, error)
}
