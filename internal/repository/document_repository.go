package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"supportdesk/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// ListRecent returns the newest documents first.
func (r *DocumentRepository) ListRecent(ctx context.Context, limit int) ([]model.Document, error) {
	if limit <= 0 {
		limit = 50
	}

	var docs []model.Document
	if err := r.db.WithContext(ctx).Order("uploaded_at DESC").Order("id DESC").Limit(limit).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) GetByFilename(ctx context.Context, filename string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("filename = ?", filename).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document by filename failed: %w", err)
	}
	return &doc, nil
}
