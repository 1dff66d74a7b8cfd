package reconcile

import (
	"spese-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ConfirmRequest struct {
	Months []ledger.Period `json:"months"`
}

// GET /api/reimbursements/candidates
func CandidatesHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		candidates, err := engine.Detect(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"candidates": candidates})
	}
}

// POST /api/reimbursements/confirm
func ConfirmHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ConfirmRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := Confirm(c.UserContext(), db, body.Months); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"confirmed": body.Months})
	}
}
