package rules

import (
	"spese-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateKeywordRequest struct {
	Keyword string `json:"keyword"`
}

type CreateSenderRequest struct {
	Pattern   string   `json:"pattern"`
	Tolerance *float64 `json:"tolerance"`
	Active    *bool    `json:"active"`
}

type UpdateSenderRequest struct {
	Tolerance *float64 `json:"tolerance"`
	Active    *bool    `json:"active"`
}

type SenderResponse struct {
	ID        uint    `json:"id"`
	Pattern   string  `json:"pattern"`
	KeywordID *uint   `json:"keyword_id"`
	Tolerance float64 `json:"tolerance"`
	Active    bool    `json:"active"`
	CreatedAt string  `json:"created_at"`
}

func toSenderResponse(s *models.ReimbursementSender) SenderResponse {
	return SenderResponse{
		ID:        s.ID,
		Pattern:   s.Pattern,
		KeywordID: s.KeywordID,
		Tolerance: s.Tolerance.InexactFloat64(),
		Active:    s.Active,
		CreatedAt: s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id is not valid")
	}
	return uint(id), nil
}

func optionalDecimal(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f).Round(2)
	return &d
}

// -------------------------
// Neutral keywords
// -------------------------

// GET /api/neutral-keywords
func ListKeywordsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kws, err := svc.ListKeywords(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(kws)
	}
}

// POST /api/neutral-keywords
func CreateKeywordHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateKeywordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		kw, err := svc.AddKeyword(c.UserContext(), body.Keyword)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(KeywordView{ID: kw.ID, Keyword: kw.Keyword})
	}
}

// DELETE /api/neutral-keywords/:id
func DeleteKeywordHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := svc.DeleteKeyword(c.UserContext(), id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "keyword deleted"})
	}
}

// -------------------------
// Reimbursement senders
// -------------------------

// GET /api/reimbursement-senders
func ListSendersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		senders, err := svc.ListSenders(c.UserContext())
		if err != nil {
			return err
		}
		res := make([]SenderResponse, 0, len(senders))
		for i := range senders {
			res = append(res, toSenderResponse(&senders[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/reimbursement-senders
func CreateSenderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSenderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		sender, err := svc.CreateSender(c.UserContext(), SenderInput{
			Pattern:   body.Pattern,
			Tolerance: optionalDecimal(body.Tolerance),
			Active:    body.Active,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toSenderResponse(sender))
	}
}

// PATCH /api/reimbursement-senders/:id
func UpdateSenderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body UpdateSenderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		sender, err := svc.UpdateSender(c.UserContext(), id, SenderUpdate{
			Tolerance: optionalDecimal(body.Tolerance),
			Active:    body.Active,
		})
		if err != nil {
			return err
		}
		return c.JSON(toSenderResponse(sender))
	}
}

// DELETE /api/reimbursement-senders/:id
func DeleteSenderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := svc.DeleteSender(c.UserContext(), id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "sender deleted"})
	}
}
