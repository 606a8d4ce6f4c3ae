// README: Promo code and first-job tracking backed by PostgreSQL, priority
// slot holds backed by Redis.
package promotions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"pronto/internal/types"
)

var ErrNoCode = errors.New("promo code not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// GetByCode looks a promo code up case-insensitively. ErrNoCode when the code
// does not exist.
func (s *Store) GetByCode(ctx context.Context, code string) (*PromoCode, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, code, COALESCE(description, ''), discount_type, discount_amount,
               COALESCE(min_order_amount, 0), COALESCE(max_uses, 0), COALESCE(current_uses, 0),
               app_only, first_time_only, active, valid_from, valid_until
        FROM promo_codes
        WHERE code = $1`, strings.ToUpper(code))

	var p PromoCode
	err := row.Scan(
		&p.ID, &p.Code, &p.Description, &p.DiscountType, &p.DiscountAmount,
		&p.MinOrderAmount, &p.MaxUses, &p.CurrentUses,
		&p.AppOnly, &p.FirstTimeOnly, &p.Active, &p.ValidFrom, &p.ValidUntil,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoCode
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) HasUsed(ctx context.Context, promoID, customerID types.ID) (bool, error) {
	var used bool
	err := s.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM promo_code_usage
            WHERE promo_code_id = $1 AND customer_id = $2
        )`, string(promoID), string(customerID)).Scan(&used)
	return used, err
}

// RecordUsage writes the usage row and bumps the code's use counter in one
// transaction.
func (s *Store) RecordUsage(ctx context.Context, promoID, customerID types.ID, discount decimal.Decimal) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO promo_code_usage (id, promo_code_id, customer_id, discount_applied, used_at)
        VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), string(promoID), string(customerID), discount, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
        UPDATE promo_codes SET current_uses = current_uses + 1 WHERE id = $1`,
		string(promoID),
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) CompletedJobs(ctx context.Context, customerID types.ID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
        SELECT COUNT(*) FROM service_requests
        WHERE customer_id = $1 AND status = 'completed'`,
		string(customerID)).Scan(&n)
	return n, err
}

func (s *Store) HasFirstJobDiscount(ctx context.Context, customerID types.ID) (bool, error) {
	var used bool
	err := s.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM promotions
            WHERE customer_id = $1 AND promotion_type = 'first_job_discount'
        )`, string(customerID)).Scan(&used)
	return used, err
}

func (s *Store) RecordFirstJobDiscount(ctx context.Context, customerID types.ID, amount decimal.Decimal) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO promotions (id, customer_id, promotion_type, amount, created_at)
        VALUES ($1, $2, 'first_job_discount', $3, $4)`,
		uuid.NewString(), string(customerID), amount, time.Now().UTC(),
	)
	return err
}

// SlotStore holds priority slots for app bookings in Redis.
type SlotStore struct {
	redis *redis.Client
}

func NewSlotStore(redis *redis.Client) *SlotStore {
	return &SlotStore{redis: redis}
}

func slotKey(slot time.Time) string {
	return fmt.Sprintf("priority:slot:%s", slot.Format("2006-01-02:15:04"))
}

// ReserveSlot holds a slot for a customer. First caller wins; holding an
// already-held slot is not an error, the existing hold simply stands.
func (s *SlotStore) ReserveSlot(ctx context.Context, customerID types.ID, slot time.Time) error {
	return s.redis.SetNX(ctx, slotKey(slot), string(customerID), slotHoldDuration).Err()
}

// HeldBy returns the customer holding a slot, or "" when unheld.
func (s *SlotStore) HeldBy(ctx context.Context, slot time.Time) (types.ID, error) {
	val, err := s.redis.Get(ctx, slotKey(slot)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return types.ID(val), nil
}
