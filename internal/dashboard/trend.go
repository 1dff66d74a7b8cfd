package dashboard

import (
	"context"
	"fmt"

	"spese-backend/internal/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DefaultTrendMonths = 12
	MaxTrendMonths     = 60
)

type TrendPoint struct {
	Label     string  `json:"label"` // YYYY-MM
	MonthName string  `json:"month_name"`
	Income    float64 `json:"income"`
	Outflow   float64 `json:"outflow"`
	Balance   float64 `json:"balance"`
}

type TrendTotals struct {
	Income  float64 `json:"income"`
	Outflow float64 `json:"outflow"`
	Balance float64 `json:"balance"`
}

type TrendResponse struct {
	From        string       `json:"from"`
	To          string       `json:"to"`
	Points      []TrendPoint `json:"points"`
	GrandTotals TrendTotals  `json:"grand_totals"`
}

type bucket struct {
	income, outflow decimal.Decimal
}

// Trend returns one point per month for the count months ending with last,
// oldest first. Months without rows are present with zero totals.
func Trend(ctx context.Context, db *gorm.DB, last ledger.Period, count int) (TrendResponse, error) {
	if !last.Valid() {
		return TrendResponse{}, fmt.Errorf("%w: invalid period %d-%d", ledger.ErrValidation, last.Year, last.Month)
	}
	if count <= 0 || count > MaxTrendMonths {
		return TrendResponse{}, fmt.Errorf("%w: months must be between 1 and %d", ledger.ErrValidation, MaxTrendMonths)
	}

	_, end := last.Range()
	start := end.AddDate(0, -count, 0)

	rows, err := countedRows(ctx, db, start, end)
	if err != nil {
		return TrendResponse{}, err
	}

	buckets := make(map[ledger.Period]*bucket, count)
	for _, r := range rows {
		p := ledger.PeriodOf(r.ValueDate)
		b, ok := buckets[p]
		if !ok {
			b = &bucket{}
			buckets[p] = b
		}
		if r.Amount.IsPositive() {
			b.income = b.income.Add(r.Amount)
		} else {
			b.outflow = b.outflow.Add(r.Amount.Abs())
		}
	}

	resp := TrendResponse{
		From:   start.Format(ledger.DateLayout),
		To:     end.AddDate(0, 0, -1).Format(ledger.DateLayout),
		Points: make([]TrendPoint, 0, count),
	}
	var grand bucket
	for m := start; m.Before(end); m = m.AddDate(0, 1, 0) {
		p := ledger.PeriodOf(m)
		b := buckets[p]
		if b == nil {
			b = &bucket{}
		}
		resp.Points = append(resp.Points, TrendPoint{
			Label:     p.String(),
			MonthName: ledger.MonthName(p.Month),
			Income:    ledger.Round2(b.income).InexactFloat64(),
			Outflow:   ledger.Round2(b.outflow).InexactFloat64(),
			Balance:   ledger.Round2(b.income.Sub(b.outflow)).InexactFloat64(),
		})
		grand.income = grand.income.Add(b.income)
		grand.outflow = grand.outflow.Add(b.outflow)
	}
	resp.GrandTotals = TrendTotals{
		Income:  ledger.Round2(grand.income).InexactFloat64(),
		Outflow: ledger.Round2(grand.outflow).InexactFloat64(),
		Balance: ledger.Round2(grand.income.Sub(grand.outflow)).InexactFloat64(),
	}
	return resp, nil
}
