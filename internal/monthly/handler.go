package monthly

import (
	"spese-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SetStatusRequest struct {
	Year  int  `json:"year"`
	Month int  `json:"month"`
	Paid  bool `json:"is_paid"`
}

// GET /api/monthly-status
func ListStatusHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := Statuses(c.UserContext(), db)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/monthly-status
func SetStatusHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		p := ledger.Period{Year: body.Year, Month: body.Month}
		err := db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			return SetPaid(c.UserContext(), tx, p, body.Paid)
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"year": p.Year, "month": p.Month, "is_paid": body.Paid})
	}
}
