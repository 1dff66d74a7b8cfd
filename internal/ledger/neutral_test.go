package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestIsNeutral(t *testing.T) {
	set := NewKeywordSet("Giroconto", "  BONIFICO DA MARIO ROSSI ", "")

	assert.True(t, IsNeutral("giroconto", set))
	assert.True(t, IsNeutral("  GIROCONTO ", set))
	assert.True(t, IsNeutral("Bonifico da Mario Rossi", set))
	assert.False(t, IsNeutral("Giroconto verso risparmi", set), "substring must not match")
	assert.False(t, IsNeutral("", set))
	assert.Len(t, set, 2)
}

func TestIsNeutral_EmptySet(t *testing.T) {
	assert.False(t, IsNeutral("giroconto", NewKeywordSet()))
}

func TestPeriod(t *testing.T) {
	p := PeriodOf(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, Period{Year: 2024, Month: 12}, p)
	assert.Equal(t, "2024-12", p.String())
	assert.Equal(t, "Dicembre", MonthName(p.Month))
	assert.Equal(t, "13", MonthName(13))

	start, end := p.Range()
	assert.Equal(t, "2024-12-01", start.Format(DateLayout))
	assert.Equal(t, "2025-01-01", end.Format(DateLayout))

	assert.True(t, Period{2024, 11}.Before(p))
	assert.True(t, p.Before(Period{2025, 1}))
	assert.False(t, p.Before(p))
	assert.True(t, p.Valid())
	assert.False(t, Period{2024, 0}.Valid())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	assert.NoError(t, err)
	assert.Equal(t, time.UTC, d.Location())

	_, err = ParseDate("28/02/2025")
	assert.Error(t, err)
}
