package app

import (
	"context"

	"supportdesk/internal/ai"
	"supportdesk/internal/model"
	"supportdesk/internal/storage"
)

type DocumentStore interface {
	ListRecent(ctx context.Context, limit int) ([]model.Document, error)
	Create(ctx context.Context, doc *model.Document) error
	GetByFilename(ctx context.Context, filename string) (*model.Document, error)
}

type TurnStore interface {
	Create(ctx context.Context, turn *model.ChatTurn) error
	UpdateAssistantMessage(ctx context.Context, id uint, assistantMessage string) error
	ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.ChatTurn, error)
}

type Completer interface {
	Complete(ctx context.Context, parts []ai.Part) (string, error)
}

type TextExtractor interface {
	Extract(data []byte, filename string) (string, error)
}

type FileStore interface {
	Save(originalName string, data []byte) (*storage.StoredFile, error)
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.ChatTurn, bool, error)
	SetHistory(ctx context.Context, sessionID string, turns []model.ChatTurn) error
	DeleteHistory(ctx context.Context, sessionID string) error
}

type TurnEventPublisher interface {
	PublishTurnCompleted(ctx context.Context, event model.TurnEvent) error
}
