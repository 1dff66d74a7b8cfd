package expense

import (
	"spese-backend/internal/ledger"
	"spese-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ExpenseRequest struct {
	Date        string `json:"date"` // "2025-12-09"
	Description string `json:"description"`
	Account     string `json:"account"`
	Category    string `json:"category"`
	Currency    string `json:"currency"`
	Amount      any    `json:"amount"` // number or "1.200,50"
}

func (r ExpenseRequest) input() Input {
	return Input{
		Date:        r.Date,
		Description: r.Description,
		Account:     r.Account,
		Category:    r.Category,
		Currency:    r.Currency,
		Amount:      r.Amount,
	}
}

type BulkDeleteRequest struct {
	Periods []ledger.Period `json:"periods"`
}

type ExpenseResponse struct {
	ID          uint    `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Account     string  `json:"account"`
	Category    string  `json:"category"`
	Currency    string  `json:"currency"`
	Amount      float64 `json:"amount"`
	Excluded    bool    `json:"is_excluded"`
	Neutral     bool    `json:"is_neutral"`
}

func toResponse(e *models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		Date:        e.ValueDate.Format(ledger.DateLayout),
		Description: e.Description,
		Account:     e.Account,
		Category:    e.Category,
		Currency:    e.CurrencyCode,
		Amount:      e.Amount.InexactFloat64(),
		Excluded:    e.Excluded,
		Neutral:     e.Neutral,
	}
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id is not valid")
	}
	return uint(id), nil
}

// GET /api/expenses?search_text=&start_date=2025-01-01&end_date=2025-01-31
func ListExpensesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		groups, err := svc.List(c.UserContext(), Filter{
			SearchText: c.Query("search_text"),
			StartDate:  c.Query("start_date"),
			EndDate:    c.Query("end_date"),
		})
		if err != nil {
			return err
		}
		return c.JSON(groups)
	}
}

// POST /api/expenses
func CreateExpenseHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		exp, err := svc.Create(c.UserContext(), body.input())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(exp))
	}
}

// PATCH /api/expenses/:id
func UpdateExpenseHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body ExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		exp, err := svc.Update(c.UserContext(), id, body.input())
		if err != nil {
			return err
		}
		return c.JSON(toResponse(exp))
	}
}

// PATCH /api/expenses/:id/toggle
func ToggleExpenseHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		exp, err := svc.ToggleExcluded(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": exp.ID, "is_excluded": exp.Excluded})
	}
}

// DELETE /api/expenses/:id
func DeleteExpenseHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"deleted": id})
	}
}

// DELETE /api/expenses/bulk-delete
func BulkDeleteHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BulkDeleteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		n, err := svc.BulkDelete(c.UserContext(), body.Periods)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"deleted": n})
	}
}
