package dashboard

import (
	"time"

	"spese-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/periods
func PeriodsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := Periods(c.UserContext(), db)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/dashboard/stats?year=2025&month=1
func StatsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := ledger.Period{Year: c.QueryInt("year"), Month: c.QueryInt("month")}
		if !p.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "year and month are required")
		}
		res, err := MonthStats(c.UserContext(), db, p)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/dashboard/trend?months=12&year=2025&month=6
// Without year/month the series ends with the current month.
func TrendHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		last := ledger.PeriodOf(time.Now().UTC())
		if c.Query("year") != "" || c.Query("month") != "" {
			last = ledger.Period{Year: c.QueryInt("year"), Month: c.QueryInt("month")}
		}
		res, err := Trend(c.UserContext(), db, last, c.QueryInt("months", DefaultTrendMonths))
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
