package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-registration-service/internal/domain/user"
	"user-registration-service/pkg/logger"
)

// ActivityLogRepoPG is the append-only activity log store.
type ActivityLogRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewActivityLogRepoPG creates a new instance of ActivityLogRepoPG.
func NewActivityLogRepoPG(db *gorm.DB, log *zap.Logger) *ActivityLogRepoPG {
	return &ActivityLogRepoPG{db: db, log: log}
}

// Create appends an entry. The generated ID and timestamp are written back to entry.
func (r *ActivityLogRepoPG) Create(ctx context.Context, entry *user.ActivityLog) error {
	if entry == nil {
		return errors.New("activity log entry cannot be nil")
	}

	model := ActivityLogSchema{
		ID:      entry.ID,
		Action:  entry.Action,
		UserID:  entry.UserID,
		Details: entry.Details,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to create activity log in db",
			zap.Error(err),
			zap.String("action", entry.Action),
			zap.String("user_id", entry.UserID),
		)
		return fmt.Errorf("failed to create activity log: %w", err)
	}

	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt
	return nil
}
