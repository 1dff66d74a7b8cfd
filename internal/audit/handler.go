package audit

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuditLogResponse struct {
	ID          uint   `json:"id"`
	CreatedAt   string `json:"created_at"`
	Actor       string `json:"actor"`
	EntityType  string `json:"entity_type"`
	EntityID    uint   `json:"entity_id"`
	Action      string `json:"action"`
	Description string `json:"description"`
	BeforeData  string `json:"before_data"`
	AfterData   string `json:"after_data"`
}

// GET /api/audit-logs?entity_type=expense&entity_id=1&limit=50
func ListAuditLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := ListFilter{EntityType: c.Query("entity_type")}

		if idStr := c.Query("entity_id"); idStr != "" {
			if _, err := fmt.Sscan(idStr, &filter.EntityID); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "entity_id is not valid")
			}
		}
		filter.Limit = c.QueryInt("limit", 100)

		logs, err := List(c.UserContext(), db, filter)
		if err != nil {
			return err
		}

		res := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			res = append(res, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				Actor:       l.Actor,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      string(l.Action),
				Description: l.Description,
				BeforeData:  l.BeforeData,
				AfterData:   l.AfterData,
			})
		}
		return c.JSON(res)
	}
}
