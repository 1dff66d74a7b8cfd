// Package expense implements manual edits of the ledger: create, update,
// exclude toggling, deletion and the grouped listing.
package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"spese-backend/internal/audit"
	"spese-backend/internal/database"
	"spese-backend/internal/ledger"
	"spese-backend/internal/models"
	"spese-backend/internal/monthly"
	"spese-backend/internal/rules"

	"gorm.io/gorm"
)

const defaultCurrency = "EUR"

// Input is a manually entered or edited row. Amount may be a number or a
// bank-formatted string.
type Input struct {
	Date        string
	Description string
	Account     string
	Category    string
	Currency    string
	Amount      any
}

type Filter struct {
	SearchText string
	StartDate  string // YYYY-MM-DD, inclusive
	EndDate    string // YYYY-MM-DD, inclusive
}

type MonthGroup struct {
	Month     int               `json:"month"`
	MonthName string            `json:"month_name"`
	Expenses  []ExpenseResponse `json:"expenses"`
}

type YearGroup struct {
	Year   int          `json:"year"`
	Months []MonthGroup `json:"months"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func parseDay(s, field string) (time.Time, error) {
	d, err := ledger.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", ledger.ErrValidation, field)
	}
	return d, nil
}

// validate checks an input and applies it to exp.
func validate(in Input, exp *models.Expense) error {
	desc := strings.TrimSpace(in.Description)
	if strings.TrimSpace(in.Date) == "" || desc == "" {
		return fmt.Errorf("%w: date and description are required", ledger.ErrValidation)
	}
	d, err := parseDay(in.Date, "date")
	if err != nil {
		return err
	}

	exp.ValueDate = d
	exp.Description = desc
	exp.Account = strings.TrimSpace(in.Account)
	exp.Category = strings.TrimSpace(in.Category)
	if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
		exp.CurrencyCode = c
	}
	if exp.CurrencyCode == "" {
		exp.CurrencyCode = defaultCurrency
	}
	exp.Amount = ledger.Round2(ledger.ParseAmountValue(in.Amount))
	exp.Fingerprint = ledger.Fingerprint(exp.ValueDate, exp.Amount, exp.Description, exp.Account)
	return nil
}

func loadExpense(tx *gorm.DB, id uint) (*models.Expense, error) {
	var exp models.Expense
	if err := tx.First(&exp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: expense %d", ledger.ErrNotFound, id)
		}
		return nil, fmt.Errorf("loading expense: %w", err)
	}
	return &exp, nil
}

// fingerprintTaken reports whether another row already owns fp.
func fingerprintTaken(tx *gorm.DB, fp string, exceptID uint) (bool, error) {
	var count int64
	q := tx.Model(&models.Expense{}).Where("fingerprint = ?", fp)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking fingerprint: %w", err)
	}
	return count > 0, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Expense, error) {
	exp := &models.Expense{}
	if err := validate(in, exp); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := fingerprintTaken(tx, exp.Fingerprint, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: an identical expense already exists", ledger.ErrConflict)
		}

		keywords, err := rules.LoadKeywordSet(ctx, tx)
		if err != nil {
			return err
		}
		exp.Neutral = ledger.IsNeutral(exp.Description, keywords)

		if err := tx.Create(exp).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("%w: an identical expense already exists", ledger.ErrConflict)
			}
			return fmt.Errorf("creating expense: %w", err)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			EntityType:  "expense",
			EntityID:    exp.ID,
			Action:      models.AuditActionCreate,
			Description: "expense added: " + exp.Description,
			After:       exp,
		})
	})
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// Update rewrites a row, recomputing its fingerprint and neutral flag. The
// excluded flag is kept.
func (s *Service) Update(ctx context.Context, id uint, in Input) (*models.Expense, error) {
	var exp *models.Expense
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if exp, err = loadExpense(tx, id); err != nil {
			return err
		}
		before := *exp

		if err := validate(in, exp); err != nil {
			return err
		}
		taken, err := fingerprintTaken(tx, exp.Fingerprint, id)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: an identical expense already exists", ledger.ErrConflict)
		}

		keywords, err := rules.LoadKeywordSet(ctx, tx)
		if err != nil {
			return err
		}
		exp.Neutral = ledger.IsNeutral(exp.Description, keywords)

		if err := tx.Save(exp).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("%w: an identical expense already exists", ledger.ErrConflict)
			}
			return fmt.Errorf("updating expense: %w", err)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			EntityType:  "expense",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: "expense updated: " + exp.Description,
			Before:      before,
			After:       exp,
		})
	})
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *Service) ToggleExcluded(ctx context.Context, id uint) (*models.Expense, error) {
	var exp *models.Expense
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if exp, err = loadExpense(tx, id); err != nil {
			return err
		}
		exp.Excluded = !exp.Excluded
		if err := tx.Model(exp).Update("excluded", exp.Excluded).Error; err != nil {
			return fmt.Errorf("toggling expense: %w", err)
		}

		state := "included"
		if exp.Excluded {
			state = "excluded"
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			EntityType:  "expense",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: "expense " + state + ": " + exp.Description,
			After:       map[string]any{"excluded": exp.Excluded},
		})
	})
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exp, err := loadExpense(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(exp).Error; err != nil {
			return fmt.Errorf("deleting expense: %w", err)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			EntityType:  "expense",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: "expense deleted: " + exp.Description,
			Before:      exp,
		})
	})
}

// BulkDelete removes every row dated inside the given months and forgets
// their paid status. Returns the number of rows deleted.
func (s *Service) BulkDelete(ctx context.Context, periods []ledger.Period) (int64, error) {
	if len(periods) == 0 {
		return 0, fmt.Errorf("%w: no periods given", ledger.ErrValidation)
	}
	for _, p := range periods {
		if !p.Valid() {
			return 0, fmt.Errorf("%w: invalid period %d-%d", ledger.ErrValidation, p.Year, p.Month)
		}
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range periods {
			start, end := p.Range()
			res := tx.Where("value_date >= ? AND value_date < ?", start, end).Delete(&models.Expense{})
			if res.Error != nil {
				return fmt.Errorf("deleting %s: %w", p, res.Error)
			}
			deleted += res.RowsAffected
		}
		if err := monthly.Clear(ctx, tx, periods...); err != nil {
			return err
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			EntityType:  "expense",
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("bulk delete: %d expenses", deleted),
			Before:      map[string]any{"periods": periods},
		})
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// List returns the matching rows grouped by year then month, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]YearGroup, error) {
	q := s.db.WithContext(ctx).Model(&models.Expense{})

	if text := strings.TrimSpace(f.SearchText); text != "" {
		like := "%" + strings.ToLower(text) + "%"
		q = q.Where("LOWER(description) LIKE ? OR LOWER(category) LIKE ? OR LOWER(account) LIKE ?", like, like, like)
	}
	if f.StartDate != "" {
		d, err := parseDay(f.StartDate, "start_date")
		if err != nil {
			return nil, err
		}
		q = q.Where("value_date >= ?", d)
	}
	if f.EndDate != "" {
		d, err := parseDay(f.EndDate, "end_date")
		if err != nil {
			return nil, err
		}
		q = q.Where("value_date <= ?", d)
	}

	var rows []models.Expense
	if err := q.Order("value_date desc, id desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return group(rows), nil
}

// group expects rows sorted newest first.
func group(rows []models.Expense) []YearGroup {
	res := []YearGroup{}
	for i := range rows {
		p := ledger.PeriodOf(rows[i].ValueDate)
		if len(res) == 0 || res[len(res)-1].Year != p.Year {
			res = append(res, YearGroup{Year: p.Year})
		}
		yg := &res[len(res)-1]
		if len(yg.Months) == 0 || yg.Months[len(yg.Months)-1].Month != p.Month {
			yg.Months = append(yg.Months, MonthGroup{Month: p.Month, MonthName: ledger.MonthName(p.Month)})
		}
		mg := &yg.Months[len(yg.Months)-1]
		mg.Expenses = append(mg.Expenses, toResponse(&rows[i]))
	}
	return res
}
