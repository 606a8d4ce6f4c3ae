// README: Pricing rate store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pronto/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetRate(ctx context.Context, st types.ServiceType, load types.LoadSize) (*Rate, error) {
	row := s.db.QueryRow(ctx, `
        SELECT service_type, load_size, base_rate, per_mile_rate
        FROM pricing_rates
        WHERE service_type = $1 AND load_size = $2 AND active = true`,
		string(st), string(load),
	)

	var r Rate
	err := row.Scan(&r.ServiceType, &r.Load, &r.BaseRate, &r.PerMileRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRate
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
