package monthly

import (
	"context"
	"testing"

	"spese-backend/internal/ledger"
	"spese-backend/internal/models"
	"spese-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPaid_Upserts(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	jan := ledger.Period{Year: 2025, Month: 1}

	require.NoError(t, SetPaid(ctx, db, jan, true))
	require.NoError(t, SetPaid(ctx, db, ledger.Period{Year: 2025, Month: 2}, false))

	got, err := Statuses(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"2025-01": true, "2025-02": false}, got)

	require.NoError(t, SetPaid(ctx, db, jan, false))
	got, err = Statuses(ctx, db)
	require.NoError(t, err)
	assert.False(t, got["2025-01"])

	var count int64
	require.NoError(t, db.Model(&models.MonthlyStatus{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestSetPaid_RejectsInvalidPeriod(t *testing.T) {
	db := testutil.OpenDB(t)
	err := SetPaid(context.Background(), db, ledger.Period{Year: 2025, Month: 13}, true)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestPaidPeriodsAndClear(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	testutil.MarkPaid(t, db, 2025, 1)
	testutil.MarkPaid(t, db, 2025, 2)
	require.NoError(t, SetPaid(ctx, db, ledger.Period{Year: 2025, Month: 3}, false))

	paid, err := PaidPeriods(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, map[ledger.Period]bool{{Year: 2025, Month: 1}: true, {Year: 2025, Month: 2}: true}, paid)

	require.NoError(t, Clear(ctx, db, ledger.Period{Year: 2025, Month: 1}))
	paid, err = PaidPeriods(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, map[ledger.Period]bool{{Year: 2025, Month: 2}: true}, paid)
}
