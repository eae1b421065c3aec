package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const resourceColumns = `resource_id, name, galaxy, class_token, stats, source,
	depleted, reported_at, depleted_at, created_at, updated_at`

func (s *PostgresStore) CreateResource(ctx context.Context, r *Resource) error {
	if r.ReportedAt.IsZero() {
		r.ReportedAt = time.Now()
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO assay_resources (name, galaxy, class_token, stats, source, reported_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING resource_id, created_at, updated_at`,
		r.Name, r.Galaxy, r.ClassToken, r.Stats, r.Source, r.ReportedAt,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
}

func (s *PostgresStore) UpsertResource(ctx context.Context, r *Resource) (bool, error) {
	if r.ReportedAt.IsZero() {
		r.ReportedAt = time.Now()
	}
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO assay_resources (name, galaxy, class_token, stats, source, reported_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (galaxy, name) DO UPDATE SET
			class_token = EXCLUDED.class_token,
			stats = EXCLUDED.stats,
			source = EXCLUDED.source,
			reported_at = EXCLUDED.reported_at,
			depleted = false,
			depleted_at = NULL,
			updated_at = now()
		RETURNING resource_id, created_at, updated_at, (xmax = 0)`,
		r.Name, r.Galaxy, r.ClassToken, r.Stats, r.Source, r.ReportedAt,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert resource %s/%s: %w", r.Galaxy, r.Name, err)
	}
	r.Depleted = false
	r.DepletedAt = nil
	return inserted, nil
}

func (s *PostgresStore) GetResource(ctx context.Context, id uuid.UUID) (*Resource, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+resourceColumns+`
		FROM assay_resources WHERE resource_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list, err := scanResources(rows)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (s *PostgresStore) ListResources(ctx context.Context, filter ResourceFilter) ([]*Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM assay_resources WHERE 1=1`
	args := []interface{}{}
	n := 0

	if !filter.IncludeDepleted {
		query += " AND NOT depleted"
	}
	if filter.Galaxy != "" {
		n++
		query += fmt.Sprintf(" AND galaxy = $%d", n)
		args = append(args, filter.Galaxy)
	}
	if len(filter.Classes) > 0 {
		n++
		query += fmt.Sprintf(" AND class_token = ANY($%d)", n)
		args = append(args, filter.Classes)
	}

	query += " ORDER BY reported_at DESC, name ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResources(rows)
}

func (s *PostgresStore) MarkDepleted(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE assay_resources SET depleted = true, depleted_at = now(), updated_at = now()
		WHERE resource_id = $1 AND NOT depleted`, id)
	return err
}

func (s *PostgresStore) DepleteMissing(ctx context.Context, galaxy string, seen []string) ([]uuid.UUID, error) {
	if seen == nil {
		seen = []string{}
	}
	rows, err := s.pool.Query(ctx, `
		UPDATE assay_resources SET depleted = true, depleted_at = now(), updated_at = now()
		WHERE galaxy = $1 AND NOT depleted AND NOT (name = ANY($2))
		RETURNING resource_id`, galaxy, seen)
	if err != nil {
		return nil, fmt.Errorf("deplete missing in %s: %w", galaxy, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("deplete missing in %s: %w", galaxy, err)
	}
	return ids, nil
}

func (s *PostgresStore) CreateSchematic(ctx context.Context, sc *Schematic) error {
	experimentsJSON, err := json.Marshal(sc.Experiments)
	if err != nil {
		return fmt.Errorf("encode experiments: %w", err)
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO assay_schematics (name, category, experiments)
		VALUES ($1, $2, $3)
		RETURNING schematic_id, created_at, updated_at`,
		sc.Name, sc.Category, experimentsJSON,
	).Scan(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt)
}

func (s *PostgresStore) GetSchematic(ctx context.Context, id uuid.UUID) (*Schematic, error) {
	sc := &Schematic{}
	var category sql.NullString
	var experimentsJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT schematic_id, name, category, experiments, created_at, updated_at
		FROM assay_schematics WHERE schematic_id = $1`, id,
	).Scan(&sc.ID, &sc.Name, &category, &experimentsJSON, &sc.CreatedAt, &sc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sc.Category = category.String
	if experimentsJSON != nil {
		if err := json.Unmarshal(experimentsJSON, &sc.Experiments); err != nil {
			return nil, fmt.Errorf("decode experiments of %s: %w", sc.ID, err)
		}
	}
	return sc, nil
}

func (s *PostgresStore) ListSchematics(ctx context.Context, category string) ([]*Schematic, error) {
	query := `SELECT schematic_id, name, category, experiments, created_at, updated_at
		FROM assay_schematics`
	args := []interface{}{}
	if category != "" {
		query += " WHERE category = $1"
		args = append(args, category)
	}
	query += " ORDER BY name ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Schematic
	for rows.Next() {
		sc := &Schematic{}
		var category sql.NullString
		var experimentsJSON []byte
		if err := rows.Scan(&sc.ID, &sc.Name, &category, &experimentsJSON, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, err
		}
		sc.Category = category.String
		if experimentsJSON != nil {
			if err := json.Unmarshal(experimentsJSON, &sc.Experiments); err != nil {
				return nil, fmt.Errorf("decode experiments of %s: %w", sc.ID, err)
			}
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteSchematic(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM assay_schematics WHERE schematic_id = $1`, id)
	return err
}

func (s *PostgresStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT depleted THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN depleted THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT galaxy),
			(SELECT COUNT(*) FROM assay_schematics)
		FROM assay_resources`,
	).Scan(&stats.TotalResources, &stats.ActiveResources, &stats.Depleted, &stats.Galaxies, &stats.Schematics)
	return stats, err
}

func scanResources(rows pgx.Rows) ([]*Resource, error) {
	var out []*Resource
	for rows.Next() {
		r := &Resource{}
		var source sql.NullString
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Galaxy, &r.ClassToken, &r.Stats, &source,
			&r.Depleted, &r.ReportedAt, &r.DepletedAt, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		r.Source = source.String
		out = append(out, r)
	}
	return out, rows.Err()
}
