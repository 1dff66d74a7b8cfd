package ledger

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// dotGrouped matches dot-only numbers whose groups are all thousands groups ("1.234", "12.345.678").
var dotGrouped = regexp.MustCompile(`^[+-]?[1-9]\d{0,2}(\.\d{3})+$`)

// ParseAmount converts a bank-formatted amount string to a decimal.
//
//	"1.200,50" -> 1200.50  (dot thousands, comma decimal)
//	"10,3"     -> 10.3     (comma decimal)
//	"-45.00"   -> -45      (dot decimal)
//	"1.234"    -> 1234     (dot followed only by 3-digit groups reads as thousands)
//
// Currency symbols and whitespace are ignored. Unparseable input yields zero.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '€' || r == '$' || r == '£':
			return -1
		case unicode.IsSpace(r):
			return -1
		}
		return r
	}, raw)

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	case hasDot && dotGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseAmountValue accepts an already-numeric value unchanged and routes
// anything textual through ParseAmount.
func ParseAmountValue(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case float64:
		return decimal.NewFromFloat(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		return ParseAmount(x)
	default:
		return decimal.Zero
	}
}

// Round2 rounds to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
