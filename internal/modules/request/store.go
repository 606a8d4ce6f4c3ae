// README: Service request store backed by PostgreSQL. Claim relies on a
// conditional UPDATE; the row either moves to accepted exactly once or the
// write affects nothing.
package request

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pronto/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *ServiceRequest) error {
	var destLat, destLng *float64
	if r.Destination != nil {
		destLat, destLng = &r.Destination.Lat, &r.Destination.Lng
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO service_requests (
            id, customer_id, service_type, load_size, vehicle_type,
            pickup_lat, pickup_lng, dest_lat, dest_lng,
            status, status_version, quoted_price, guaranteed_ceiling,
            scheduled_for, created_at
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8, $9,
            $10, $11, $12, $13,
            $14, $15
        )`,
		string(r.ID),
		string(r.CustomerID),
		string(r.ServiceType),
		string(r.Load),
		string(r.VehicleType),
		r.Pickup.Lat, r.Pickup.Lng,
		destLat, destLng,
		string(r.Status),
		r.StatusVersion,
		r.QuotedPrice,
		r.GuaranteedCeiling,
		r.ScheduledFor,
		r.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*ServiceRequest, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, customer_id, service_type, load_size, vehicle_type,
               pickup_lat, pickup_lng, dest_lat, dest_lng,
               status, status_version, assigned_pro_id, quoted_price, final_price,
               guaranteed_ceiling, scheduled_for, created_at, accepted_at,
               started_at, completed_at, cancelled_at, cancel_reason
        FROM service_requests
        WHERE id = $1`, string(id),
	)

	var r ServiceRequest
	var destLat, destLng sql.NullFloat64
	var proID, cancelReason sql.NullString
	var finalPrice, ceiling decimal.NullDecimal
	var scheduledFor, acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.CustomerID, &r.ServiceType, &r.Load, &r.VehicleType,
		&r.Pickup.Lat, &r.Pickup.Lng, &destLat, &destLng,
		&r.Status, &r.StatusVersion, &proID, &r.QuotedPrice, &finalPrice,
		&ceiling, &scheduledFor, &r.CreatedAt, &acceptedAt,
		&startedAt, &completedAt, &cancelledAt, &cancelReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if destLat.Valid && destLng.Valid {
		r.Destination = &types.Point{Lat: destLat.Float64, Lng: destLng.Float64}
	}
	if proID.Valid {
		p := types.ID(proID.String)
		r.AssignedProID = &p
	}
	if finalPrice.Valid {
		r.FinalPrice = &finalPrice.Decimal
	}
	if ceiling.Valid {
		r.GuaranteedCeiling = &ceiling.Decimal
	}
	if cancelReason.Valid {
		r.CancelReason = &cancelReason.String
	}
	r.ScheduledFor = toTimePtr(scheduledFor)
	r.AcceptedAt = toTimePtr(acceptedAt)
	r.StartedAt = toTimePtr(startedAt)
	r.CompletedAt = toTimePtr(completedAt)
	r.CancelledAt = toTimePtr(cancelledAt)
	return &r, nil
}

// Claim atomically binds a pro to a still-claimable request. The WHERE clause
// is the entire arbitration: only one concurrent caller can match an
// unaccepted, uncancelled, pre-acceptance row.
func (s *Store) Claim(ctx context.Context, id, proID types.ID, finalPrice *decimal.Decimal) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE service_requests
        SET status = 'accepted',
            status_version = status_version + 1,
            assigned_pro_id = $2,
            final_price = COALESCE($3, final_price),
            accepted_at = NOW()
        WHERE id = $1
          AND status IN ('pending', 'matching', 'matched')
          AND accepted_at IS NULL
          AND cancelled_at IS NULL`,
		string(id),
		string(proID),
		finalPrice,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE service_requests
        SET status = $1,
            status_version = status_version + 1,
            started_at = CASE WHEN $1 = 'in_progress' THEN NOW() ELSE started_at END,
            completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
            cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END,
            cancel_reason = COALESCE($2, cancel_reason)
        WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	var actorID *string
	if e.ActorID != nil {
		v := string(*e.ActorID)
		actorID = &v
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO request_events (
            request_id, from_status, to_status, actor_type, actor_id, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.RequestID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		actorID,
		e.CreatedAt,
	)
	return err
}

func (s *Store) HasActiveByCustomer(ctx context.Context, customerID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM service_requests
            WHERE customer_id = $1
              AND status IN ('pending', 'matching', 'matched', 'accepted', 'in_progress')
        )`, string(customerID),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
