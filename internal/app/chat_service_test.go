package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"supportdesk/internal/ai"
	"supportdesk/internal/model"
	"supportdesk/internal/prompt"
)

type chatFixture struct {
	docs      *fakeDocs
	turns     *fakeTurns
	completer *fakeCompleter
	extractor *fakeExtractor
	cache     *fakeCache
	publisher *fakePublisher
	svc       *ChatService
}

func newChatFixture(docs []model.Document) *chatFixture {
	f := &chatFixture{
		docs:      &fakeDocs{docs: docs},
		turns:     newFakeTurns(),
		completer: &fakeCompleter{reply: "Refunds take 5 days."},
		extractor: &fakeExtractor{},
		cache:     newFakeCache(),
		publisher: &fakePublisher{},
	}
	f.svc = NewChatService(
		f.docs,
		f.turns,
		prompt.NewAssembler(f.extractor, 0),
		f.completer,
		f.cache,
		f.publisher,
		ChatOptions{},
	)
	return f
}

func TestSendMessageAnswersAndPersists(t *testing.T) {
	f := newChatFixture([]model.Document{
		{Filename: "faq.txt", URL: "/uploads/faq.txt", Text: "Refunds are processed in 5 days. Refunds refunds."},
		{Filename: "shipping.txt", URL: "/uploads/shipping.txt", Text: "Shipping is free."},
	})

	res, err := f.svc.SendMessage(context.Background(), SendMessageInput{Message: "refund", SessionID: "s1"})
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if res.Degraded {
		t.Fatal("expected a genuine reply")
	}
	if res.Reply != "Refunds take 5 days." {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
	if len(res.Docs) != 1 || res.Docs[0] != (DocRef{Filename: "faq.txt", URL: "/uploads/faq.txt"}) {
		t.Fatalf("unexpected docs %+v", res.Docs)
	}

	if f.turns.creates != 1 || f.turns.updates != 1 {
		t.Fatalf("expected 1 create and 1 update, got %d and %d", f.turns.creates, f.turns.updates)
	}
	turn := f.turns.only()
	if turn.UserMessage != "refund" || turn.SessionID == nil || *turn.SessionID != "s1" {
		t.Fatalf("unexpected turn %+v", turn)
	}
	if turn.AssistantMessage == nil || *turn.AssistantMessage != res.Reply {
		t.Fatalf("assistant message not stored: %+v", turn.AssistantMessage)
	}
	if f.completer.calls != 1 {
		t.Fatalf("expected 1 completion call, got %d", f.completer.calls)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].TurnID != turn.ID {
		t.Fatalf("expected turn event, got %+v", f.publisher.events)
	}
}

func TestSendMessageCompletionFailureFallsBack(t *testing.T) {
	f := newChatFixture(nil)
	f.completer.err = ai.ErrMissingCredentials

	res, err := f.svc.SendMessage(context.Background(), SendMessageInput{Message: "hello"})
	if err != nil {
		t.Fatalf("completion failure must not surface as error: %v", err)
	}
	if !res.Degraded || res.Reply != FallbackReply {
		t.Fatalf("expected fallback reply, got %+v", res)
	}

	turn := f.turns.only()
	if turn.UserMessage != "hello" {
		t.Fatalf("user turn not persisted: %+v", turn)
	}
	if turn.SessionID != nil {
		t.Fatalf("expected nil session, got %q", *turn.SessionID)
	}
	if turn.AssistantMessage == nil || *turn.AssistantMessage != FallbackReply {
		t.Fatalf("fallback not stored: %+v", turn.AssistantMessage)
	}
	if len(f.publisher.events) != 0 {
		t.Fatal("turns without a session should not publish events")
	}
}

func TestSendMessageRejectsEmptyRequest(t *testing.T) {
	f := newChatFixture(nil)

	for _, msg := range []string{"", "   "} {
		_, err := f.svc.SendMessage(context.Background(), SendMessageInput{Message: msg})
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("expected ErrInvalidRequest, got %v", err)
		}
	}
	if f.turns.creates != 0 || f.turns.updates != 0 {
		t.Fatal("rejected requests must not write")
	}
	if f.completer.calls != 0 {
		t.Fatal("rejected requests must not call the completion service")
	}
}

func TestSendMessageImageOnly(t *testing.T) {
	f := newChatFixture([]model.Document{{Filename: "faq.txt", Text: "[attached file: cat.png]"}})
	att := &prompt.Attachment{Filename: "cat.png", MIMEType: "image/png", Data: []byte{0x89}}

	res, err := f.svc.SendMessage(context.Background(), SendMessageInput{Attachment: att})
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if len(res.Docs) != 0 {
		t.Fatalf("attachment-only messages must skip retrieval, got %+v", res.Docs)
	}
	if got := f.turns.only().UserMessage; got != "[Attached File: cat.png]" {
		t.Fatalf("unexpected synthesized message %q", got)
	}

	parts := f.completer.parts
	if len(parts) != 3 {
		t.Fatalf("expected 3 prompt parts, got %d", len(parts))
	}
	if _, ok := parts[2].(ai.BinaryPart); !ok {
		t.Fatalf("expected binary image part, got %T", parts[2])
	}
	if f.extractor.calls != 0 {
		t.Fatal("images must not be extracted")
	}
}

func TestSendMessageUnextractableDocx(t *testing.T) {
	f := newChatFixture(nil)
	att := &prompt.Attachment{Filename: "empty.docx", MIMEType: "application/octet-stream"}

	if _, err := f.svc.SendMessage(context.Background(), SendMessageInput{Message: "what is this", Attachment: att}); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	last, ok := f.completer.parts[len(f.completer.parts)-1].(ai.TextPart)
	if !ok {
		t.Fatalf("expected text part, got %T", f.completer.parts[len(f.completer.parts)-1])
	}
	if !strings.Contains(last.Text, "empty.docx (Could not extract text)") {
		t.Fatalf("expected placeholder, got %q", last.Text)
	}
	if f.extractor.calls != 1 {
		t.Fatalf("expected one extraction, got %d", f.extractor.calls)
	}
}

func TestSendMessageCreateFailureIsHard(t *testing.T) {
	f := newChatFixture(nil)
	f.turns.createErr = errors.New("db down")

	_, err := f.svc.SendMessage(context.Background(), SendMessageInput{Message: "hello"})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if f.completer.calls != 0 {
		t.Fatal("completion must not run without a persisted turn")
	}
	if f.turns.updates != 0 {
		t.Fatal("no update expected without a turn")
	}
}

func TestSendMessageCorpusFailureHappensBeforeAnyWrite(t *testing.T) {
	f := newChatFixture(nil)
	f.docs.listErr = errors.New("db down")

	if _, err := f.svc.SendMessage(context.Background(), SendMessageInput{Message: "hello"}); err == nil {
		t.Fatal("expected error")
	}
	if f.turns.creates != 0 {
		t.Fatal("no turn should be created")
	}
}

func TestSendMessageUpdateFailureIsHard(t *testing.T) {
	f := newChatFixture(nil)
	f.turns.updateErr = errors.New("db down")

	_, err := f.svc.SendMessage(context.Background(), SendMessageInput{Message: "hello"})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if f.turns.creates != 1 {
		t.Fatal("user turn should have been created")
	}
	if f.turns.updates != 1 {
		t.Fatalf("expected a single update attempt, got %d", f.turns.updates)
	}
}

func TestSendMessageEmptyCompletionFallsBack(t *testing.T) {
	for _, reply := range []string{"", "  \n"} {
		f := newChatFixture(nil)
		f.completer.reply = reply

		res, err := f.svc.SendMessage(context.Background(), SendMessageInput{Message: "hello", SessionID: "s1"})
		if err != nil {
			t.Fatalf("SendMessage err: %v", err)
		}
		if !res.Degraded || res.Reply != FallbackReply {
			t.Fatalf("reply %q: expected fallback, got %+v", reply, res)
		}
		if msg := f.turns.only().AssistantMessage; msg == nil || *msg != FallbackReply {
			t.Fatalf("reply %q: fallback should be stored", reply)
		}
	}
}

func TestSendMessageStoresCompletionAsReturned(t *testing.T) {
	f := newChatFixture(nil)
	f.completer.reply = "  Refunds take 5 days.\n"

	res, err := f.svc.SendMessage(context.Background(), SendMessageInput{Message: "refund"})
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if res.Degraded || res.Reply != "  Refunds take 5 days.\n" {
		t.Fatalf("unexpected result %+v", res)
	}
	if msg := f.turns.only().AssistantMessage; msg == nil || *msg != res.Reply {
		t.Fatalf("stored reply differs from returned reply: %v", msg)
	}
}

func TestSendMessageStoresSubmittedMessage(t *testing.T) {
	f := newChatFixture([]model.Document{{Filename: "orders.txt", Text: "where is my order? track it online"}})

	res, err := f.svc.SendMessage(context.Background(), SendMessageInput{Message: "  where is my order?\n"})
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if got := f.turns.only().UserMessage; got != "  where is my order?\n" {
		t.Fatalf("user message should be stored as submitted, got %q", got)
	}
	if len(res.Docs) != 1 || res.Docs[0].Filename != "orders.txt" {
		t.Fatalf("retrieval should use the trimmed message, got %+v", res.Docs)
	}
}

func TestSendMessageFallbackSurvivesCanceledContext(t *testing.T) {
	f := newChatFixture(nil)
	f.completer.err = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := f.svc.SendMessage(ctx, SendMessageInput{Message: "hello", SessionID: "s1"})
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if res.Reply != FallbackReply {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
	if msg := f.turns.only().AssistantMessage; msg == nil || *msg != FallbackReply {
		t.Fatal("fallback should be stored")
	}
}

func TestGetHistoryReadsThroughCache(t *testing.T) {
	f := newChatFixture(nil)
	ctx := context.Background()
	for _, msg := range []string{"first", "second"} {
		if _, err := f.svc.SendMessage(ctx, SendMessageInput{Message: msg, SessionID: "s1"}); err != nil {
			t.Fatalf("SendMessage err: %v", err)
		}
	}
	if _, err := f.svc.SendMessage(ctx, SendMessageInput{Message: "other", SessionID: "s2"}); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}

	turns, err := f.svc.GetHistory(ctx, "s1")
	if err != nil {
		t.Fatalf("GetHistory err: %v", err)
	}
	if len(turns) != 2 || turns[0].UserMessage != "first" || turns[1].UserMessage != "second" {
		t.Fatalf("unexpected history %+v", turns)
	}
	if _, ok := f.cache.entries["s1"]; !ok {
		t.Fatal("history should be cached after a miss")
	}

	if _, err := f.svc.SendMessage(ctx, SendMessageInput{Message: "third", SessionID: "s1"}); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if _, ok := f.cache.entries["s1"]; ok {
		t.Fatal("new turns should invalidate the cached history")
	}

	if _, err := f.svc.GetHistory(ctx, " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
