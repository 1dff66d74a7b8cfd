// Package dashboard computes the read-only summaries shown on the overview
// screen. Totals always skip excluded and neutral rows.
package dashboard

import (
	"context"
	"fmt"
	"sort"

	"spese-backend/internal/ledger"
	"spese-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TopCategoryCount is how many outflow categories MonthStats ranks.
const TopCategoryCount = 3

type PeriodView struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	MonthName string `json:"month_name"`
}

type PeriodsResponse struct {
	Periods     []PeriodView `json:"periods"`
	Years       []int        `json:"years"`
	LatestYear  *int         `json:"latest_year"`
	LatestMonth *int         `json:"latest_month"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type StatsResponse struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	MonthName     string          `json:"month_name"`
	Income        float64         `json:"income"`
	Outflow       float64         `json:"outflow"` // absolute value
	Balance       float64         `json:"balance"`
	Count         int             `json:"count"`
	TopCategories []CategoryTotal `json:"top_categories"`
}

// Periods lists every month holding at least one row, newest first.
func Periods(ctx context.Context, db *gorm.DB) (PeriodsResponse, error) {
	var rows []models.Expense
	if err := db.WithContext(ctx).Select("value_date").Find(&rows).Error; err != nil {
		return PeriodsResponse{}, fmt.Errorf("listing periods: %w", err)
	}

	seen := make(map[ledger.Period]bool)
	var periods []ledger.Period
	for _, r := range rows {
		p := ledger.PeriodOf(r.ValueDate)
		if !seen[p] {
			seen[p] = true
			periods = append(periods, p)
		}
	}
	sort.Slice(periods, func(i, j int) bool { return periods[j].Before(periods[i]) })

	res := PeriodsResponse{Periods: []PeriodView{}, Years: []int{}}
	for _, p := range periods {
		res.Periods = append(res.Periods, PeriodView{Year: p.Year, Month: p.Month, MonthName: ledger.MonthName(p.Month)})
		if len(res.Years) == 0 || res.Years[len(res.Years)-1] != p.Year {
			res.Years = append(res.Years, p.Year)
		}
	}
	if len(periods) > 0 {
		res.LatestYear = &periods[0].Year
		res.LatestMonth = &periods[0].Month
	}
	return res, nil
}

// countedRows returns the rows of [from, to) that count toward totals.
func countedRows(ctx context.Context, db *gorm.DB, from, to any) ([]models.Expense, error) {
	var rows []models.Expense
	err := db.WithContext(ctx).
		Select("id", "value_date", "amount", "category").
		Where("value_date >= ? AND value_date < ?", from, to).
		Where("excluded = ? AND neutral = ?", false, false).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading ledger rows: %w", err)
	}
	return rows, nil
}

func MonthStats(ctx context.Context, db *gorm.DB, p ledger.Period) (StatsResponse, error) {
	if !p.Valid() {
		return StatsResponse{}, fmt.Errorf("%w: invalid period %d-%d", ledger.ErrValidation, p.Year, p.Month)
	}
	start, end := p.Range()
	rows, err := countedRows(ctx, db, start, end)
	if err != nil {
		return StatsResponse{}, err
	}

	income, outflow := decimal.Zero, decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, r := range rows {
		if r.Amount.IsPositive() {
			income = income.Add(r.Amount)
			continue
		}
		outflow = outflow.Add(r.Amount)
		if r.Amount.IsNegative() && r.Category != "" {
			byCategory[r.Category] = byCategory[r.Category].Add(r.Amount.Abs())
		}
	}

	top := make([]CategoryTotal, 0, len(byCategory))
	totals := make(map[string]decimal.Decimal, len(byCategory))
	for name, total := range byCategory {
		top = append(top, CategoryTotal{Category: name, Total: ledger.Round2(total).InexactFloat64()})
		totals[name] = total
	}
	sort.Slice(top, func(i, j int) bool {
		ti, tj := totals[top[i].Category], totals[top[j].Category]
		if !ti.Equal(tj) {
			return ti.GreaterThan(tj)
		}
		return top[i].Category < top[j].Category
	})
	if len(top) > TopCategoryCount {
		top = top[:TopCategoryCount]
	}

	return StatsResponse{
		Year:          p.Year,
		Month:         p.Month,
		MonthName:     ledger.MonthName(p.Month),
		Income:        ledger.Round2(income).InexactFloat64(),
		Outflow:       ledger.Round2(outflow.Abs()).InexactFloat64(),
		Balance:       ledger.Round2(income.Add(outflow)).InexactFloat64(),
		Count:         len(rows),
		TopCategories: top,
	}, nil
}
