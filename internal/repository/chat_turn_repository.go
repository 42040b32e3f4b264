package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"supportdesk/internal/model"
)

type ChatTurnRepository struct {
	db *gorm.DB
}

func NewChatTurnRepository(db *gorm.DB) *ChatTurnRepository {
	return &ChatTurnRepository{db: db}
}

func (r *ChatTurnRepository) Create(ctx context.Context, turn *model.ChatTurn) error {
	if err := r.db.WithContext(ctx).Create(turn).Error; err != nil {
		return fmt.Errorf("create chat turn failed: %w", err)
	}
	return nil
}

func (r *ChatTurnRepository) UpdateAssistantMessage(ctx context.Context, id uint, assistantMessage string) error {
	if err := r.db.WithContext(ctx).
		Model(&model.ChatTurn{}).
		Where("id = ?", id).
		Update("assistant_message", assistantMessage).Error; err != nil {
		return fmt.Errorf("update chat turn failed: %w", err)
	}
	return nil
}

// ListBySessionID orders by creation time; the auto-increment id breaks timestamp ties.
func (r *ChatTurnRepository) ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.ChatTurn, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	var turns []model.ChatTurn
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("list chat turns failed: %w", err)
	}
	return turns, nil
}
