package app

import (
	"context"
	"sort"
	"sync"

	"supportdesk/internal/ai"
	"supportdesk/internal/model"
	"supportdesk/internal/storage"
)

type fakeDocs struct {
	docs    []model.Document
	listErr error
	created []model.Document
}

func (f *fakeDocs) ListRecent(_ context.Context, limit int) ([]model.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit < len(f.docs) {
		return f.docs[:limit], nil
	}
	return f.docs, nil
}

func (f *fakeDocs) Create(_ context.Context, doc *model.Document) error {
	doc.ID = uint(len(f.created) + 1)
	f.created = append(f.created, *doc)
	return nil
}

func (f *fakeDocs) GetByFilename(_ context.Context, filename string) (*model.Document, error) {
	for i := range f.docs {
		if f.docs[i].Filename == filename {
			return &f.docs[i], nil
		}
	}
	for i := range f.created {
		if f.created[i].Filename == filename {
			return &f.created[i], nil
		}
	}
	return nil, nil
}

type fakeTurns struct {
	mu        sync.Mutex
	rows      map[uint]model.ChatTurn
	nextID    uint
	createErr error
	updateErr error
	creates   int
	updates   int
}

func newFakeTurns() *fakeTurns {
	return &fakeTurns{rows: make(map[uint]model.ChatTurn)}
}

func (f *fakeTurns) Create(_ context.Context, turn *model.ChatTurn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	turn.ID = f.nextID
	f.rows[turn.ID] = *turn
	return nil
}

func (f *fakeTurns) UpdateAssistantMessage(_ context.Context, id uint, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	row := f.rows[id]
	row.AssistantMessage = &msg
	f.rows[id] = row
	return nil
}

func (f *fakeTurns) ListBySessionID(_ context.Context, sessionID string, limit int) ([]model.ChatTurn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ChatTurn
	for _, row := range f.rows {
		if row.SessionID != nil && *row.SessionID == sessionID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTurns) only() model.ChatTurn {
	for _, row := range f.rows {
		return row
	}
	return model.ChatTurn{}
}

type fakeCompleter struct {
	reply string
	err   error
	calls int
	parts []ai.Part
}

func (f *fakeCompleter) Complete(_ context.Context, parts []ai.Part) (string, error) {
	f.calls++
	f.parts = parts
	return f.reply, f.err
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ []byte, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeFiles struct {
	saved []string
}

func (f *fakeFiles) Save(originalName string, _ []byte) (*storage.StoredFile, error) {
	f.saved = append(f.saved, originalName)
	name := "stored-" + originalName
	return &storage.StoredFile{StoredName: name, Path: "/tmp/" + name, URL: "/uploads/" + name}, nil
}

type fakeCache struct {
	entries map[string][]model.ChatTurn
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]model.ChatTurn)}
}

func (f *fakeCache) GetHistory(_ context.Context, sessionID string) ([]model.ChatTurn, bool, error) {
	turns, ok := f.entries[sessionID]
	return turns, ok, nil
}

func (f *fakeCache) SetHistory(_ context.Context, sessionID string, turns []model.ChatTurn) error {
	f.entries[sessionID] = turns
	return nil
}

func (f *fakeCache) DeleteHistory(_ context.Context, sessionID string) error {
	f.deletes++
	delete(f.entries, sessionID)
	return nil
}

type fakePublisher struct {
	events []model.TurnEvent
}

func (f *fakePublisher) PublishTurnCompleted(_ context.Context, event model.TurnEvent) error {
	f.events = append(f.events, event)
	return nil
}
