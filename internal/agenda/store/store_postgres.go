package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"siappa/internal/agenda/models"
	identity "siappa/internal/identity/models"
	id "siappa/pkg/domain"
	"siappa/pkg/platform/sentinel"
	"siappa/pkg/platform/tx"
)

const itemColumns = `id, title, kind, scheduled_at, location, description, poster_url,
	village_id, created_by, created_at, updated_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, item *models.Item) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO agenda_items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(item.ID), item.Title, string(item.Kind), item.ScheduledAt, item.Location,
		item.Description, item.PosterURL, int(item.VillageID), nullPrincipal(item.CreatedBy),
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert agenda item: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, agendaID id.AgendaID) (*models.Item, error) {
	return scanOne(tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM agenda_items WHERE id = $1`, uuid.UUID(agendaID)))
}

func (s *PostgresStore) List(ctx context.Context, scope identity.Scope) ([]*models.Item, error) {
	if scope.IsNone() {
		return []*models.Item{}, nil
	}
	query := `SELECT ` + itemColumns + ` FROM agenda_items`
	var args []any
	if v, ok := scope.Village(); ok {
		query += ` WHERE village_id = $1`
		args = append(args, int(v))
	}
	query += ` ORDER BY scheduled_at ASC`

	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list agenda items: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agenda items: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Execute(ctx context.Context, agendaID id.AgendaID, validate func(*models.Item) error, mutate func(*models.Item)) (*models.Item, error) {
	var updated *models.Item
	err := tx.NewSQLRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		exec := tx.Exec(ctx, s.db)
		item, err := scanOne(exec.QueryRowContext(ctx,
			`SELECT `+itemColumns+` FROM agenda_items WHERE id = $1 FOR UPDATE`, uuid.UUID(agendaID)))
		if err != nil {
			return err
		}
		if err := validate(item); err != nil {
			return err
		}
		mutate(item)
		_, err = exec.ExecContext(ctx, `
			UPDATE agenda_items
			SET title = $2, kind = $3, scheduled_at = $4, location = $5, description = $6,
			    poster_url = $7, village_id = $8, updated_at = $9
			WHERE id = $1`,
			uuid.UUID(item.ID), item.Title, string(item.Kind), item.ScheduledAt, item.Location,
			item.Description, item.PosterURL, int(item.VillageID), item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update agenda item: %w", err)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, agendaID id.AgendaID, validate func(*models.Item) error) error {
	return tx.NewSQLRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		exec := tx.Exec(ctx, s.db)
		item, err := scanOne(exec.QueryRowContext(ctx,
			`SELECT `+itemColumns+` FROM agenda_items WHERE id = $1 FOR UPDATE`, uuid.UUID(agendaID)))
		if err != nil {
			return err
		}
		if err := validate(item); err != nil {
			return err
		}
		if _, err := exec.ExecContext(ctx, `DELETE FROM agenda_items WHERE id = $1`, uuid.UUID(agendaID)); err != nil {
			return fmt.Errorf("delete agenda item: %w", err)
		}
		return nil
	})
}

func nullPrincipal(p id.PrincipalID) uuid.NullUUID {
	if p.IsNil() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(p), Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*models.Item, error) {
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("agenda not found: %w", sentinel.ErrNotFound)
	}
	return item, err
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item      models.Item
		agendaID  uuid.UUID
		kind      string
		poster    sql.NullString
		villageID int
		createdBy uuid.NullUUID
	)
	err := row.Scan(&agendaID, &item.Title, &kind, &item.ScheduledAt, &item.Location, &item.Description,
		&poster, &villageID, &createdBy, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan agenda item: %w", err)
	}
	item.ID = id.AgendaID(agendaID)
	item.Kind = models.Kind(kind)
	item.VillageID = id.VillageID(villageID)
	if poster.Valid {
		u := poster.String
		item.PosterURL = &u
	}
	if createdBy.Valid {
		item.CreatedBy = id.PrincipalID(createdBy.UUID)
	}
	item.ScheduledAt = item.ScheduledAt.UTC()
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}
