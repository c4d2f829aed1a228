package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"siappa/internal/identity/models"
	id "siappa/pkg/domain"
	"siappa/pkg/platform/sentinel"
)

// PostgresStore reads the profiles table joined with villages.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, principalID id.PrincipalID) (*models.Profile, error) {
	var (
		p           models.Profile
		rawID       uuid.UUID
		villageID   sql.NullInt64
		villageName sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.full_name, p.email, p.role, p.village_id, v.name
		FROM profiles p
		LEFT JOIN villages v ON v.id = p.village_id
		WHERE p.id = $1`, uuid.UUID(principalID),
	).Scan(&rawID, &p.FullName, &p.Email, &p.Role, &villageID, &villageName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	p.ID = id.PrincipalID(rawID)
	if villageID.Valid {
		p.VillageID = id.VillageID(villageID.Int64)
	}
	p.VillageName = villageName.String
	return &p, nil
}

// Upsert writes a profile. Used by seeding and integration tests.
func (s *PostgresStore) Upsert(ctx context.Context, p models.Profile) error {
	var villageID any
	if !p.VillageID.IsZero() {
		villageID = int(p.VillageID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, full_name, email, role, village_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			village_id = EXCLUDED.village_id`,
		uuid.UUID(p.ID), p.FullName, p.Email, p.Role, villageID,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
