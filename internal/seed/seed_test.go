package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"spese-backend/internal/models"
	"spese-backend/internal/rules"
	"spese-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rulesYAML = `
neutral_keywords:
  - Giroconto
  - Ricarica carta
senders:
  - pattern: Mario Rossi
    tolerance: 2.5
  - pattern: Luigi Bianchi
    active: false
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rulesYAML), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Giroconto", "Ricarica carta"}, f.NeutralKeywords)
	require.Len(t, f.Senders, 2)
	require.NotNil(t, f.Senders[0].Tolerance)
	assert.Equal(t, 2.5, *f.Senders[0].Tolerance)
	assert.Nil(t, f.Senders[1].Tolerance)
	require.NotNil(t, f.Senders[1].Active)
	assert.False(t, *f.Senders[1].Active)

	_, err = Parse([]byte("neutral_keywords: {"))
	assert.Error(t, err)
}

func TestApply_Idempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := rules.NewService(db, decimal.NewFromInt(5))
	ctx := context.Background()
	f, err := Parse([]byte(rulesYAML))
	require.NoError(t, err)

	res, err := Apply(ctx, svc, f)
	require.NoError(t, err)
	assert.Equal(t, Result{KeywordsAdded: 2, SendersAdded: 2}, res)

	res, err = Apply(ctx, svc, f)
	require.NoError(t, err)
	assert.Equal(t, Result{KeywordsSkipped: 2, SendersSkipped: 2}, res)

	var senders []models.ReimbursementSender
	require.NoError(t, db.Order("id asc").Find(&senders).Error)
	require.Len(t, senders, 2)
	assert.Equal(t, "2.50", senders[0].Tolerance.StringFixed(2))
	assert.True(t, senders[0].Active)
	assert.Equal(t, "5.00", senders[1].Tolerance.StringFixed(2))
	assert.False(t, senders[1].Active)

	var keywords int64
	require.NoError(t, db.Model(&models.NeutralKeyword{}).Count(&keywords).Error)
	assert.EqualValues(t, 4, keywords)
}
