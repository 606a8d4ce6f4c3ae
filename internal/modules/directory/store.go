// README: Pro directory store backed by PostgreSQL.
package directory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pronto/internal/types"
)

var ErrNotFound = errors.New("pro not found")

// Directory is the narrow read port the dispatch core depends on.
type Directory interface {
	ListAvailable(ctx context.Context) ([]Pro, error)
	Get(ctx context.Context, id types.ID) (*Pro, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) ListAvailable(ctx context.Context) ([]Pro, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, name, current_lat, current_lng, available, service_types,
               vehicle_type, languages, rating, jobs_completed, review_count,
               verified, priority_boost
        FROM pros
        WHERE available = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pros []Pro
	for rows.Next() {
		p, err := scanPro(rows)
		if err != nil {
			return nil, err
		}
		pros = append(pros, *p)
	}
	return pros, rows.Err()
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Pro, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, name, current_lat, current_lng, available, service_types,
               vehicle_type, languages, rating, jobs_completed, review_count,
               verified, priority_boost
        FROM pros
        WHERE id = $1`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanPro(rows)
}

func scanPro(row pgx.Row) (*Pro, error) {
	var p Pro
	var lat, lng sql.NullFloat64
	var vehicle sql.NullString
	var serviceTypes, languages []string

	err := row.Scan(
		&p.ID, &p.Name, &lat, &lng, &p.Available, &serviceTypes,
		&vehicle, &languages, &p.Rating, &p.JobsCompleted, &p.ReviewCount,
		&p.Verified, &p.PriorityBoost,
	)
	if err != nil {
		return nil, err
	}

	if lat.Valid && lng.Valid {
		p.Location = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	if vehicle.Valid {
		p.VehicleType = types.VehicleType(vehicle.String)
	}
	p.ServiceTypes = make([]types.ServiceType, len(serviceTypes))
	for i, st := range serviceTypes {
		p.ServiceTypes[i] = types.ServiceType(st)
	}
	p.Languages = languages
	return &p, nil
}
