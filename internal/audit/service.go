package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"spese-backend/internal/models"

	"gorm.io/gorm"
)

type actorKey struct{}

// WithActor stores the name recorded on audit logs written under ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) string {
	if ctx != nil {
		if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
			return a
		}
	}
	return "anonymous"
}

type LogOptions struct {
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog records a change. Pass the transaction performing the change so the
// log commits or rolls back with it.
func WriteLog(ctx context.Context, db *gorm.DB, opts LogOptions) error {
	entry := models.AuditLog{
		Actor:       ActorFrom(ctx),
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  marshal(opts.Before),
		AfterData:   marshal(opts.After),
	}

	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

func marshal(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

type ListFilter struct {
	EntityType string
	EntityID   uint
	Limit      int
}

func List(ctx context.Context, db *gorm.DB, f ListFilter) ([]models.AuditLog, error) {
	q := db.WithContext(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var logs []models.AuditLog
	if err := q.Order("id desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("listing audit logs: %w", err)
	}
	return logs, nil
}
