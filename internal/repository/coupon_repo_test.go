package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCouponRepoMock(t *testing.T) (pgxmock.PgxPoolIface, CouponRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewCouponRepository(mock)
}

func TestAllocateNext_ClaimsOne(t *testing.T) {
	mock, repo := newCouponRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE coupons SET claimed_at = NOW()`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "coupon"}).AddRow(4, "SAVE20"))

	coupon, err := repo.AllocateNext(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 4, coupon.ID)
	assert.Equal(t, "SAVE20", coupon.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateNext_Exhausted(t *testing.T) {
	mock, repo := newCouponRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE coupons SET claimed_at = NOW()`)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.AllocateNext(context.Background())

	assert.ErrorIs(t, err, ErrCouponsExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignTo(t *testing.T) {
	mock, repo := newCouponRepoMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE coupons SET user_id = $1 WHERE id = $2 AND user_id IS NULL`)).
		WithArgs(7, 4).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.AssignTo(context.Background(), 4, 7)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignTo_AlreadyAssigned(t *testing.T) {
	mock, repo := newCouponRepoMock(t)

	// Once user_id is set the conditional update matches nothing.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE coupons SET user_id = $1 WHERE id = $2 AND user_id IS NULL`)).
		WithArgs(8, 4).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.AssignTo(context.Background(), 4, 8)

	assert.ErrorIs(t, err, ErrCouponAlreadyAssigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}
