package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"siappa/internal/catalog/models"
	id "siappa/pkg/domain"
	"siappa/pkg/platform/sentinel"
	"siappa/pkg/platform/strings"
)

// PostgresStore reads reference data from the villages and case_categories tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListCategories(ctx context.Context, group models.Group) ([]models.Category, error) {
	query := `SELECT id, kelompok, name FROM case_categories`
	args := []any{}
	if group != "" {
		query += ` WHERE kelompok = $1`
		args = append(args, string(group))
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		var g string
		if err := rows.Scan(&c.ID, &g, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Group = models.Group(g)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindCategory(ctx context.Context, categoryID id.CategoryID) (*models.Category, error) {
	var c models.Category
	var g string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kelompok, name FROM case_categories WHERE id = $1`, int(categoryID),
	).Scan(&c.ID, &g, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	c.Group = models.Group(g)
	return &c, nil
}

func (s *PostgresStore) ListVillages(ctx context.Context) ([]models.Village, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM villages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list villages: %w", err)
	}
	defer rows.Close()

	var out []models.Village
	for rows.Next() {
		var v models.Village
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			return nil, fmt.Errorf("scan village: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate villages: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindVillage(ctx context.Context, villageID id.VillageID) (*models.Village, error) {
	var v models.Village
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM villages WHERE id = $1`, int(villageID),
	).Scan(&v.ID, &v.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find village: %w", err)
	}
	return &v, nil
}

func (s *PostgresStore) FindVillageByName(ctx context.Context, name string) (*models.Village, error) {
	var v models.Village
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM villages WHERE lower(name) = $1`, strings.FoldKey(name),
	).Scan(&v.ID, &v.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find village by name: %w", err)
	}
	return &v, nil
}
