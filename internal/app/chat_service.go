package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"supportdesk/internal/ai"
	"supportdesk/internal/model"
	"supportdesk/internal/prompt"
	"supportdesk/internal/retrieval"
)

// FallbackReply replaces the assistant message whenever the completion call fails.
const FallbackReply = "I'm sorry, I'm having trouble connecting to the AI service right now. Please try again later."

const (
	defaultCorpusLimit  = 50
	defaultHistoryLimit = 200
)

type ChatOptions struct {
	CorpusLimit  int
	TopK         int
	HistoryLimit int
}

type ChatService struct {
	docs         DocumentStore
	turns        TurnStore
	assembler    *prompt.Assembler
	completer    Completer
	historyCache HistoryCache
	publisher    TurnEventPublisher
	opts         ChatOptions
}

type SendMessageInput struct {
	Message    string
	SessionID  string
	Attachment *prompt.Attachment
}

type DocRef struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// SendMessageResult is returned for every request that passed validation and got a turn persisted.
// Degraded reports that Reply is FallbackReply rather than a completion.
type SendMessageResult struct {
	TurnID   uint     `json:"turn_id"`
	Reply    string   `json:"reply"`
	Docs     []DocRef `json:"docs"`
	Degraded bool     `json:"-"`
}

func NewChatService(
	docs DocumentStore,
	turns TurnStore,
	assembler *prompt.Assembler,
	completer Completer,
	historyCache HistoryCache,
	publisher TurnEventPublisher,
	opts ChatOptions,
) *ChatService {
	if opts.CorpusLimit <= 0 {
		opts.CorpusLimit = defaultCorpusLimit
	}
	if opts.TopK <= 0 {
		opts.TopK = retrieval.DefaultLimit
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	return &ChatService{
		docs:         docs,
		turns:        turns,
		assembler:    assembler,
		completer:    completer,
		historyCache: historyCache,
		publisher:    publisher,
		opts:         opts,
	}
}

// SendMessage persists the user turn before calling the completion service, so the
// turn survives any downstream failure. A failed completion is answered with
// FallbackReply and a Degraded result, not an error.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" && input.Attachment == nil {
		return nil, ErrInvalidRequest
	}
	sessionID := strings.TrimSpace(input.SessionID)
	// Stored as submitted; the trimmed form only drives validation and retrieval.
	userMessage := input.Message
	if message == "" {
		userMessage = fmt.Sprintf("[Attached File: %s]", input.Attachment.Filename)
	}

	var scored []retrieval.ScoredDocument
	if message != "" {
		corpus, err := s.docs.ListRecent(ctx, s.opts.CorpusLimit)
		if err != nil {
			return nil, fmt.Errorf("load corpus failed: %w", err)
		}
		scored = retrieval.Retrieve(message, corpus, s.opts.TopK)
	}

	// Writes below must outlive a client that disconnects mid-completion.
	persistCtx := context.WithoutCancel(ctx)

	turn := &model.ChatTurn{
		SessionID:   sessionPtr(sessionID),
		UserMessage: userMessage,
		CreatedAt:   time.Now(),
	}
	if err := s.turns.Create(persistCtx, turn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.invalidateHistory(persistCtx, sessionID)

	parts := s.assembler.Assemble(scored, userMessage, input.Attachment)

	result := &SendMessageResult{
		TurnID: turn.ID,
		Docs:   docRefs(scored),
	}
	reply, err := s.completer.Complete(ctx, parts)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = fmt.Errorf("%w: empty response", ai.ErrCompletion)
	}
	if err != nil {
		log.Printf("[chat] completion for turn %d failed: %v", turn.ID, err)
		result.Reply = FallbackReply
		result.Degraded = true
	} else {
		result.Reply = reply
	}

	// One update per request: a failed write is not retried with the fallback.
	if err := s.turns.UpdateAssistantMessage(persistCtx, turn.ID, result.Reply); err != nil {
		if result.Degraded {
			log.Printf("[chat] store fallback for turn %d failed: %v", turn.ID, err)
			return result, nil
		}
		log.Printf("[chat] store reply for turn %d failed: %v", turn.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.invalidateHistory(persistCtx, sessionID)
	s.publishAnswered(persistCtx, turn, result.Degraded)
	return result, nil
}

// GetHistory returns the turns of a session, oldest first.
func (s *ChatService) GetHistory(ctx context.Context, sessionID string) ([]model.ChatTurn, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidInput
	}

	if s.historyCache != nil {
		if cached, hit, err := s.historyCache.GetHistory(ctx, sessionID); err == nil && hit {
			return cached, nil
		}
	}

	turns, err := s.turns.ListBySessionID(ctx, sessionID, s.opts.HistoryLimit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		_ = s.historyCache.SetHistory(ctx, sessionID, turns)
	}
	return turns, nil
}

// RefreshHistory reloads a session from the store into the cache.
func (s *ChatService) RefreshHistory(ctx context.Context, sessionID string) error {
	if s.historyCache == nil || sessionID == "" {
		return nil
	}
	turns, err := s.turns.ListBySessionID(ctx, sessionID, s.opts.HistoryLimit)
	if err != nil {
		return err
	}
	return s.historyCache.SetHistory(ctx, sessionID, turns)
}

func (s *ChatService) invalidateHistory(ctx context.Context, sessionID string) {
	if s.historyCache == nil || sessionID == "" {
		return
	}
	if err := s.historyCache.DeleteHistory(ctx, sessionID); err != nil {
		log.Printf("[chat] invalidate history %q failed: %v", sessionID, err)
	}
}

func (s *ChatService) publishAnswered(ctx context.Context, turn *model.ChatTurn, degraded bool) {
	if s.publisher == nil || turn.SessionID == nil {
		return
	}
	event := model.TurnEvent{
		TurnID:     turn.ID,
		SessionID:  *turn.SessionID,
		Degraded:   degraded,
		AnsweredAt: time.Now(),
	}
	if err := s.publisher.PublishTurnCompleted(ctx, event); err != nil {
		log.Printf("[chat] publish turn %d event failed: %v", turn.ID, err)
	}
}

func sessionPtr(sessionID string) *string {
	if sessionID == "" {
		return nil
	}
	return &sessionID
}

func docRefs(scored []retrieval.ScoredDocument) []DocRef {
	refs := make([]DocRef, 0, len(scored))
	for _, s := range scored {
		refs = append(refs, DocRef{Filename: s.Document.Filename, URL: s.Document.URL})
	}
	return refs
}
