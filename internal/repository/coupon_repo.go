package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/model"
)

// CouponRepository is the coupon allocator. Claiming and assignment are split
// so a failed send leaves a detectable claimed-but-unassigned coupon instead
// of silently returning the code to the pool.
type CouponRepository interface {
	// AllocateNext atomically claims one unclaimed coupon and returns it, or
	// ErrCouponsExhausted when the pool is empty. Concurrent callers never
	// receive the same coupon.
	AllocateNext(ctx context.Context) (*model.Coupon, error)
	// AssignTo finalizes the coupon-to-user link. Returns
	// ErrCouponAlreadyAssigned if the coupon already belongs to a user.
	AssignTo(ctx context.Context, couponID, userID int) error
}

type couponRepository struct {
	db DB
}

// NewCouponRepository creates a new CouponRepository
func NewCouponRepository(db DB) CouponRepository {
	return &couponRepository{db: db}
}

// AllocateNext claims inside a single conditional UPDATE. SKIP LOCKED keeps
// concurrent claimants from blocking on or double-claiming the same row.
func (r *couponRepository) AllocateNext(ctx context.Context) (*model.Coupon, error) {
	coupon := &model.Coupon{}
	sql := `UPDATE coupons SET claimed_at = NOW()
            WHERE id = (
                SELECT id FROM coupons WHERE claimed_at IS NULL
                ORDER BY id LIMIT 1 FOR UPDATE SKIP LOCKED
            )
            RETURNING id, coupon`
	err := r.db.QueryRow(ctx, sql).Scan(&coupon.ID, &coupon.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCouponsExhausted
		}
		return nil, fmt.Errorf("failed to claim coupon: %w", err)
	}
	return coupon, nil
}

func (r *couponRepository) AssignTo(ctx context.Context, couponID, userID int) error {
	sql := `UPDATE coupons SET user_id = $1 WHERE id = $2 AND user_id IS NULL`
	cmdTag, err := r.db.Exec(ctx, sql, userID, couponID)
	if err != nil {
		return fmt.Errorf("failed to assign coupon %d: %w", couponID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("coupon %d: %w", couponID, ErrCouponAlreadyAssigned)
	}
	return nil
}
