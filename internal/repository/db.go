package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrUnknownAnswer is returned when an answer id does not exist.
	ErrUnknownAnswer = errors.New("unknown answer")
	// ErrCouponsExhausted signals an empty coupon pool. It is an expected
	// terminal condition for a coupon run, not a failure.
	ErrCouponsExhausted = errors.New("coupon pool exhausted")
	// ErrCouponAlreadyAssigned is returned when finalizing a coupon that
	// already belongs to a user.
	ErrCouponAlreadyAssigned = errors.New("coupon already assigned")
)

// DB is the subset of pgxpool.Pool the repositories use. Narrowing to this
// interface lets pgxmock stand in for the pool in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
