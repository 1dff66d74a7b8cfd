// Package reconcile matches incoming transfers from known reimbursement
// senders against runs of unpaid months whose net spending they settle.
package reconcile

import (
	"context"
	"sort"
	"time"

	"spese-backend/internal/ledger"
	"spese-backend/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// SettlementCutoffDay is the day a month counts as closed: a transfer
	// settles a month only when it arrives after that month's cutoff.
	SettlementCutoffDay = 28
	// MaxWindowMonths caps how many consecutive months one transfer may cover.
	MaxWindowMonths = 4
)

// NegligibleTotal: months whose absolute net total does not exceed this are
// never candidates.
var NegligibleTotal = decimal.RequireFromString("0.01")

// Store is the read side the engine needs.
type Store interface {
	// ActiveSenders returns active senders in creation order.
	ActiveSenders(ctx context.Context) ([]models.ReimbursementSender, error)
	PaidPeriods(ctx context.Context) (map[ledger.Period]bool, error)
	// NonNeutralExpenses returns every row not flagged neutral, excluded ones included.
	NonNeutralExpenses(ctx context.Context) ([]models.Expense, error)
	// IncomingTransfers returns positive rows whose description contains
	// pattern case-insensitively, newest first.
	IncomingTransfers(ctx context.Context, pattern string) ([]models.Expense, error)
}

type Transfer struct {
	ID          uint    `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type MonthTotal struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	MonthName string  `json:"month_name"`
	Amount    float64 `json:"amount"`
}

func (m MonthTotal) Period() ledger.Period {
	return ledger.Period{Year: m.Year, Month: m.Month}
}

// Candidate is an advisory match of one transfer to a run of months.
type Candidate struct {
	SenderID    uint         `json:"sender_id"`
	Transaction Transfer     `json:"transaction"`
	Months      []MonthTotal `json:"months"`
	MonthsTotal float64      `json:"months_total"`
	Diff        float64      `json:"diff"`
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

type unpaidMonth struct {
	period ledger.Period
	total  decimal.Decimal // rounded to cents
}

// Detect proposes, for each transfer from an active sender, the contiguous run
// of unpaid months before it whose net total best matches the transfer within
// the sender's tolerance. It never writes.
func (e *Engine) Detect(ctx context.Context) ([]Candidate, error) {
	candidates := []Candidate{}

	senders, err := e.store.ActiveSenders(ctx)
	if err != nil {
		return nil, err
	}
	if len(senders) == 0 {
		return candidates, nil
	}

	unpaid, err := e.unpaidMonths(ctx)
	if err != nil {
		return nil, err
	}
	if len(unpaid) == 0 {
		return candidates, nil
	}

	seen := make(map[uint]bool)
	for _, sender := range senders {
		transfers, err := e.store.IncomingTransfers(ctx, sender.Pattern)
		if err != nil {
			return nil, err
		}
		for _, tx := range transfers {
			if seen[tx.ID] {
				continue
			}
			best, ok := bestRun(eligibleBefore(unpaid, tx.ValueDate), tx.Amount, sender.Tolerance)
			if !ok {
				continue
			}
			seen[tx.ID] = true
			best.SenderID = sender.ID
			best.Transaction = Transfer{
				ID:          tx.ID,
				Date:        tx.ValueDate.Format(ledger.DateLayout),
				Description: tx.Description,
				Amount:      ledger.Round2(tx.Amount).InexactFloat64(),
			}
			candidates = append(candidates, best)
		}
	}
	return candidates, nil
}

// unpaidMonths returns months with non-neutral activity that are not paid
// and whose net total is not negligible, in chronological order.
func (e *Engine) unpaidMonths(ctx context.Context) ([]unpaidMonth, error) {
	paid, err := e.store.PaidPeriods(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := e.store.NonNeutralExpenses(ctx)
	if err != nil {
		return nil, err
	}

	totals := make(map[ledger.Period]decimal.Decimal)
	for _, r := range rows {
		if r.ValueDate.IsZero() {
			continue
		}
		p := ledger.PeriodOf(r.ValueDate)
		if paid[p] {
			continue
		}
		sum := totals[p]
		if !r.Excluded {
			sum = sum.Add(r.Amount)
		}
		totals[p] = sum
	}

	res := make([]unpaidMonth, 0, len(totals))
	for p, total := range totals {
		if total.Abs().GreaterThan(NegligibleTotal) {
			res = append(res, unpaidMonth{period: p, total: ledger.Round2(total)})
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].period.Before(res[j].period) })
	return res, nil
}

// eligibleBefore keeps the months whose cutoff day falls strictly before the
// transfer date. unpaid is already chronological.
func eligibleBefore(unpaid []unpaidMonth, transferDate time.Time) []unpaidMonth {
	var res []unpaidMonth
	for _, m := range unpaid {
		if m.period.Day(SettlementCutoffDay).Before(transferDate) {
			res = append(res, m)
		}
	}
	return res
}

// bestRun scans every run of 1..MaxWindowMonths consecutive eligible months
// and keeps the one with the smallest |abs(sum) - amount| within tolerance.
// Ties go to the run found first (earlier start, then shorter).
func bestRun(eligible []unpaidMonth, amount, tolerance decimal.Decimal) (Candidate, bool) {
	var (
		best     Candidate
		bestDiff decimal.Decimal
		found    bool
	)
	for start := range eligible {
		sum := decimal.Zero
		for end := start; end < len(eligible) && end < start+MaxWindowMonths; end++ {
			sum = sum.Add(eligible[end].total)
			diff := sum.Abs().Sub(amount).Abs()
			if diff.GreaterThan(tolerance) || (found && !diff.LessThan(bestDiff)) {
				continue
			}
			found, bestDiff = true, diff
			best = Candidate{
				Months:      monthTotals(eligible[start : end+1]),
				MonthsTotal: ledger.Round2(sum).InexactFloat64(),
				Diff:        ledger.Round2(diff).InexactFloat64(),
			}
		}
	}
	return best, found
}

func monthTotals(run []unpaidMonth) []MonthTotal {
	res := make([]MonthTotal, 0, len(run))
	for _, m := range run {
		res = append(res, MonthTotal{
			Year:      m.period.Year,
			Month:     m.period.Month,
			MonthName: ledger.MonthName(m.period.Month),
			Amount:    m.total.InexactFloat64(),
		})
	}
	return res
}
