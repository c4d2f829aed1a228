package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"siappa/internal/cases/models"
	identity "siappa/internal/identity/models"
	id "siappa/pkg/domain"
	"siappa/pkg/platform/sentinel"
	"siappa/pkg/platform/tx"
)

const uniqueViolation = "23505"

const caseColumns = `id, ticket_code, category_id, reporter_status, reporter_name, is_anonymous,
	reporter_contact, village_id, incident_location, chronology, evidence_ref, status,
	referral_agency, admin_notes, created_at, updated_at, resolved_at`

// PostgresStore persists cases in the cases table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Case) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO cases (`+caseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		uuid.UUID(c.ID),
		c.TicketCode,
		int(c.CategoryID),
		string(c.ReporterStatus),
		c.ReporterName,
		c.IsAnonymous,
		c.ReporterContact,
		int(c.VillageID),
		c.IncidentLocation,
		c.Chronology,
		c.EvidenceRef,
		string(c.Status),
		c.ReferralAgency,
		c.AdminNotes,
		c.CreatedAt,
		c.UpdatedAt,
		c.ResolvedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("insert case %s: %w", pqErr.Constraint, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`, uuid.UUID(caseID))
	return scanOne(row)
}

func (s *PostgresStore) FindByTicket(ctx context.Context, code string) (*models.Case, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE ticket_code = $1`, code)
	return scanOne(row)
}

// List pushes the scope and filter into the WHERE clause.
func (s *PostgresStore) List(ctx context.Context, scope identity.Scope, filter models.ListFilter) ([]*models.Case, error) {
	if scope.IsNone() {
		return []*models.Case{}, nil
	}
	where, args := scopeClause(scope)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if q := strings.Join(strings.Fields(filter.Query), " "); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		n := "$" + strconv.Itoa(len(args))
		where = append(where, "(ticket_code ILIKE "+n+" OR reporter_name ILIKE "+n+" OR incident_location ILIKE "+n+")")
	}

	query := `SELECT ` + caseColumns + ` FROM cases`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, ticket_code DESC`

	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context, scope identity.Scope) (map[models.Status]int, error) {
	counts := make(map[models.Status]int)
	if scope.IsNone() {
		return counts, nil
	}
	where, args := scopeClause(scope)
	query := `SELECT status, COUNT(*) FROM cases`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` GROUP BY status`

	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count cases: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan case count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case counts: %w", err)
	}
	return counts, nil
}

// Execute locks the row with SELECT ... FOR UPDATE, validates the persisted
// state, applies mutate and writes the mutable columns back. It joins the
// transaction in ctx or opens its own.
func (s *PostgresStore) Execute(ctx context.Context, caseID id.CaseID, validate func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error) {
	var updated *models.Case
	err := s.inTx(ctx, func(ctx context.Context) error {
		exec := tx.Exec(ctx, s.db)
		c, err := scanOne(exec.QueryRowContext(ctx,
			`SELECT `+caseColumns+` FROM cases WHERE id = $1 FOR UPDATE`, uuid.UUID(caseID)))
		if err != nil {
			return err
		}
		if err := validate(c); err != nil {
			return err
		}
		mutate(c)
		_, err = exec.ExecContext(ctx, `
			UPDATE cases
			SET status = $2, referral_agency = $3, admin_notes = $4, updated_at = $5, resolved_at = $6
			WHERE id = $1`,
			uuid.UUID(c.ID), string(c.Status), c.ReferralAgency, c.AdminNotes, c.UpdatedAt, c.ResolvedAt,
		)
		if err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete locks and removes the row, returning what was deleted.
func (s *PostgresStore) Delete(ctx context.Context, caseID id.CaseID, validate func(*models.Case) error) (*models.Case, error) {
	var deleted *models.Case
	err := s.inTx(ctx, func(ctx context.Context) error {
		exec := tx.Exec(ctx, s.db)
		c, err := scanOne(exec.QueryRowContext(ctx,
			`SELECT `+caseColumns+` FROM cases WHERE id = $1 FOR UPDATE`, uuid.UUID(caseID)))
		if err != nil {
			return err
		}
		if err := validate(c); err != nil {
			return err
		}
		if _, err := exec.ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, uuid.UUID(caseID)); err != nil {
			return fmt.Errorf("delete case: %w", err)
		}
		deleted = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := tx.From(ctx); ok {
		return fn(ctx)
	}
	return tx.NewSQLRunner(s.db).RunInTx(ctx, fn)
}

func scopeClause(scope identity.Scope) ([]string, []any) {
	if v, ok := scope.Village(); ok {
		return []string{"village_id = $1"}, []any{int(v)}
	}
	return nil, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*models.Case, error) {
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
	}
	return c, err
}

func scanCase(row rowScanner) (*models.Case, error) {
	var (
		c              models.Case
		caseID         uuid.UUID
		categoryID     int
		reporterStatus string
		villageID      int
		evidence       sql.NullString
		status         string
		resolvedAt     sql.NullTime
	)
	err := row.Scan(
		&caseID, &c.TicketCode, &categoryID, &reporterStatus, &c.ReporterName, &c.IsAnonymous,
		&c.ReporterContact, &villageID, &c.IncidentLocation, &c.Chronology, &evidence, &status,
		&c.ReferralAgency, &c.AdminNotes, &c.CreatedAt, &c.UpdatedAt, &resolvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan case: %w", err)
	}
	c.ID = id.CaseID(caseID)
	c.CategoryID = id.CategoryID(categoryID)
	c.ReporterStatus = models.ReporterStatus(reporterStatus)
	c.VillageID = id.VillageID(villageID)
	c.Status = models.Status(status)
	if evidence.Valid {
		ref := evidence.String
		c.EvidenceRef = &ref
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		c.ResolvedAt = &t
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
