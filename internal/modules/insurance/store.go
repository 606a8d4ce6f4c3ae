// README: Insurance policy store backed by PostgreSQL.
package insurance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pronto/internal/types"
)

// ErrNoPolicy means the pro has no general-liability policy on file.
var ErrNoPolicy = errors.New("no policy on file")

// PolicyReader is the narrow read port the gate depends on.
type PolicyReader interface {
	GeneralLiability(ctx context.Context, proID types.ID) (*Policy, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GeneralLiability(ctx context.Context, proID types.ID) (*Policy, error) {
	row := s.db.QueryRow(ctx, `
        SELECT pro_id, policy_type, verified, expires_at
        FROM insurance_policies
        WHERE pro_id = $1 AND policy_type = 'general_liability'`, string(proID))

	var p Policy
	err := row.Scan(&p.ProID, &p.PolicyType, &p.Verified, &p.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoPolicy
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
