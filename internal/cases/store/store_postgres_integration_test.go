//go:build integration

package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"siappa/internal/cases/models"
	"siappa/internal/cases/store"
	identity "siappa/internal/identity/models"
	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
	"siappa/pkg/platform/sentinel"
	"siappa/pkg/platform/tx"
	"siappa/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	base     time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.base = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "cases", "case_events", "outbox"))
}

func (s *PostgresStoreSuite) newCase(n int, village id.VillageID, location string) *models.Case {
	created := s.base.Add(time.Duration(n) * time.Minute)
	evidence := "https://files.example/" + fmt.Sprint(n)
	return &models.Case{
		ID:               id.NewCaseID(),
		TicketCode:       fmt.Sprintf("TIKET-2025-BBBBBBB%02d", n),
		CategoryID:       3,
		ReporterStatus:   models.ReporterSaksi,
		ReporterName:     models.AnonymousName,
		IsAnonymous:      true,
		ReporterContact:  "0812",
		VillageID:        village,
		IncidentLocation: location,
		Chronology:       "kronologi",
		EvidenceRef:      &evidence,
		Status:           models.StatusPending,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	c := s.newCase(1, 1, "Desa A")
	s.Require().NoError(s.store.Create(ctx, c))

	got, err := s.store.FindByTicket(ctx, c.TicketCode)
	s.Require().NoError(err)
	s.True(c.CreatedAt.Equal(got.CreatedAt))
	got.CreatedAt, got.UpdatedAt = c.CreatedAt, c.UpdatedAt
	s.Equal(c, got)
}

func (s *PostgresStoreSuite) TestDuplicateTicketIsAlreadyUsed() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newCase(1, 1, "Desa A")))
	err := s.store.Create(ctx, s.newCase(1, 2, "Desa B"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestListScopeFilterAndOrder() {
	ctx := context.Background()
	for i := range 4 {
		village, location := id.VillageID(1), "Desa A"
		if i%2 == 1 {
			village, location = 2, "Desa B"
		}
		s.Require().NoError(s.store.Create(ctx, s.newCase(i, village, location)))
	}

	got, err := s.store.List(ctx, identity.ScopeVillage(1), models.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.True(got[0].CreatedAt.After(got[1].CreatedAt))
	for _, c := range got {
		s.Equal(id.VillageID(1), c.VillageID)
	}

	got, err = s.store.List(ctx, identity.ScopeAll(), models.ListFilter{Query: "bbbbbbb03"})
	s.Require().NoError(err)
	s.Len(got, 1)

	got, err = s.store.List(ctx, identity.ScopeAll(), models.ListFilter{Query: "100%"})
	s.Require().NoError(err)
	s.Empty(got)

	counts, err := s.store.CountByStatus(ctx, identity.ScopeVillage(2))
	s.Require().NoError(err)
	s.Equal(map[models.Status]int{models.StatusPending: 2}, counts)
}

func (s *PostgresStoreSuite) TestExecuteAndDelete() {
	ctx := context.Background()
	c := s.newCase(1, 1, "Desa A")
	s.Require().NoError(s.store.Create(ctx, c))

	now := s.base.Add(time.Hour)
	for _, u := range []models.StatusUpdate{
		{Status: models.StatusProses},
		{Status: models.StatusReferred, ReferralAgency: "RS Umum"},
		{Status: models.StatusSelesai},
	} {
		_, err := s.store.Execute(ctx, c.ID,
			func(cur *models.Case) error { return cur.CheckStatusUpdate(u) },
			func(cur *models.Case) { cur.ApplyStatusUpdate(u, now) },
		)
		s.Require().NoError(err)
	}

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSelesai, got.Status)
	s.Empty(got.ReferralAgency)
	s.Require().NotNil(got.ResolvedAt)
	s.True(now.Equal(*got.ResolvedAt))

	deleted, err := s.store.Delete(ctx, c.ID, func(*models.Case) error { return nil })
	s.Require().NoError(err)
	s.Equal(c.TicketCode, deleted.TicketCode)
	_, err = s.store.FindByID(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecuteJoinsCallerTransaction() {
	ctx := context.Background()
	c := s.newCase(1, 1, "Desa A")
	s.Require().NoError(s.store.Create(ctx, c))

	rollback := fmt.Errorf("abort")
	err := tx.NewSQLRunner(s.postgres.DB).RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.store.Execute(ctx, c.ID,
			func(*models.Case) error { return nil },
			func(cur *models.Case) { cur.Status = models.StatusProses },
		)
		s.Require().NoError(err)
		return rollback
	})
	s.ErrorIs(err, rollback)

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, got.Status)
}

// racingUpdate starts first, holds the row lock inside validate until second
// has been issued, then commits. second must observe the committed state.
func (s *PostgresStoreSuite) racingUpdate(caseID id.CaseID, first, second models.StatusUpdate) (error, error) {
	ctx := context.Background()
	locked := make(chan struct{})
	release := make(chan struct{})
	var firstErr, secondErr error
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = s.store.Execute(ctx, caseID,
			func(cur *models.Case) error {
				close(locked)
				<-release
				return cur.CheckStatusUpdate(first)
			},
			func(cur *models.Case) { cur.ApplyStatusUpdate(first, s.base.Add(time.Hour)) },
		)
	}()

	<-locked
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, secondErr = s.store.Execute(ctx, caseID,
			func(cur *models.Case) error { return cur.CheckStatusUpdate(second) },
			func(cur *models.Case) { cur.ApplyStatusUpdate(second, s.base.Add(2*time.Hour)) },
		)
	}()
	// Give the second transaction time to queue on FOR UPDATE.
	time.Sleep(200 * time.Millisecond)
	close(release)
	wg.Wait()
	return firstErr, secondErr
}

func (s *PostgresStoreSuite) TestExecuteRowLockRejectsStaleTransition() {
	c := s.newCase(1, 1, "Desa A")
	c.Status = models.StatusProses
	s.Require().NoError(s.store.Create(context.Background(), c))

	resolveErr, referErr := s.racingUpdate(c.ID,
		models.StatusUpdate{Status: models.StatusSelesai},
		models.StatusUpdate{Status: models.StatusReferred, ReferralAgency: "RS Umum"},
	)

	s.Require().NoError(resolveErr)
	s.Require().Error(referErr)
	s.True(dErrors.HasCode(referErr, dErrors.CodeIllegalTransition))

	got, err := s.store.FindByID(context.Background(), c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSelesai, got.Status)
	s.Empty(got.ReferralAgency)
	s.Require().NotNil(got.ResolvedAt)
	s.True(s.base.Add(time.Hour).Equal(*got.ResolvedAt))
}

func (s *PostgresStoreSuite) TestExecuteRowLockAllowsLegalOrder() {
	c := s.newCase(1, 1, "Desa A")
	c.Status = models.StatusProses
	s.Require().NoError(s.store.Create(context.Background(), c))

	referErr, resolveErr := s.racingUpdate(c.ID,
		models.StatusUpdate{Status: models.StatusReferred, ReferralAgency: "RS Umum"},
		models.StatusUpdate{Status: models.StatusSelesai},
	)

	s.Require().NoError(referErr)
	s.Require().NoError(resolveErr)

	got, err := s.store.FindByID(context.Background(), c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSelesai, got.Status)
	s.Empty(got.ReferralAgency)
	s.Require().NotNil(got.ResolvedAt)
	s.True(s.base.Add(2 * time.Hour).Equal(*got.ResolvedAt))
}
