package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "siappa/pkg/domain"
	audit "siappa/pkg/platform/audit"
	"siappa/pkg/platform/audit/store/memory"
	"siappa/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.CaseEvent) error {
	return errors.New("disk full")
}

func (failingStore) ListByCase(context.Context, id.CaseID) ([]audit.CaseEvent, error) {
	return nil, nil
}

func TestPublisher_Emit(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store)
	caseID := id.NewCaseID()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), now), "req-9")

	err := pub.Emit(ctx, audit.CaseEvent{
		CaseID:     caseID,
		Action:     audit.ActionStatusChanged,
		FromStatus: "Pending",
		ToStatus:   "Proses",
		ActorID:    id.PrincipalID(uuid.New()),
	})
	require.NoError(t, err)

	events, err := pub.History(ctx, caseID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, now, events[0].OccurredAt)
	assert.Equal(t, "req-9", events[0].RequestID)
}

func TestPublisher_RejectsIncompleteEvents(t *testing.T) {
	pub := New(memory.NewInMemoryStore())
	ctx := context.Background()

	assert.Error(t, pub.Emit(ctx, audit.CaseEvent{Action: audit.ActionCaseCreated}))
	assert.Error(t, pub.Emit(ctx, audit.CaseEvent{CaseID: id.NewCaseID(), Action: "reopened"}))
}

func TestPublisher_FailsClosed(t *testing.T) {
	pub := New(failingStore{})
	err := pub.Emit(context.Background(), audit.CaseEvent{CaseID: id.NewCaseID(), Action: audit.ActionCaseDeleted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
