package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar date format used in fingerprints and the API.
const DateLayout = "2006-01-02"

// Fingerprint returns the exact-duplicate key of a transaction:
// SHA256("{date}|{amount:.2f}|{description}|{account}") as hex, with
// description and account lower-cased and trimmed.
func Fingerprint(valueDate time.Time, amount decimal.Decimal, description, account string) string {
	raw := strings.Join([]string{
		valueDate.Format(DateLayout),
		amount.StringFixed(2),
		NormalizeKey(description),
		NormalizeKey(account),
	}, "|")

	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NormalizeKey lower-cases and trims s; descriptions and keywords are compared in this form.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
