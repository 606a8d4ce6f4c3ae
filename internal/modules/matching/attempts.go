// README: Match attempt store backed by PostgreSQL.
package matching

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"pronto/internal/types"
)

type AttemptStore struct {
	db *pgxpool.Pool
}

func NewAttemptStore(db *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) Create(ctx context.Context, a MatchAttempt) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO match_attempts (id, request_id, pro_id, status, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		string(a.ID), string(a.RequestID), string(a.ProID), string(a.Status),
		a.CreatedAt, a.ExpiresAt,
	)
	return err
}

func (s *AttemptStore) ListByRequest(ctx context.Context, requestID types.ID) ([]MatchAttempt, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, request_id, pro_id, status, created_at, expires_at
        FROM match_attempts
        WHERE request_id = $1
        ORDER BY created_at`, string(requestID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []MatchAttempt
	for rows.Next() {
		var a MatchAttempt
		if err := rows.Scan(&a.ID, &a.RequestID, &a.ProID, &a.Status, &a.CreatedAt, &a.ExpiresAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ResolveOutcome marks the winner's pending attempt accepted and expires every
// other pending attempt for the request. Called by the acceptance arbiter once
// a winner is bound.
func (s *AttemptStore) ResolveOutcome(ctx context.Context, requestID, winnerProID types.ID) error {
	_, err := s.db.Exec(ctx, `
        UPDATE match_attempts
        SET status = CASE WHEN pro_id = $2 THEN 'accepted' ELSE 'expired' END
        WHERE request_id = $1 AND status = 'pending'`,
		string(requestID), string(winnerProID),
	)
	return err
}
