package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"supportdesk/internal/model"
	"supportdesk/internal/platform/rabbitmq"
)

type HistoryRefresher interface {
	RefreshHistory(ctx context.Context, sessionID string) error
}

// HistoryRefreshWorker consumes turn events and reloads the session history cache,
// so the next history read after an answered turn is a cache hit.
type HistoryRefreshWorker struct {
	conn      *amqp.Connection
	refresher HistoryRefresher
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHistoryRefreshWorker(conn *amqp.Connection, refresher HistoryRefresher, queueName string) *HistoryRefreshWorker {
	return &HistoryRefreshWorker{
		conn:      conn,
		refresher: refresher,
		queueName: queueName,
	}
}

func (w *HistoryRefreshWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					log.Printf("[worker] %v", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *HistoryRefreshWorker) handle(ctx context.Context, body []byte) error {
	var event model.TurnEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode turn event failed: %w", err)
	}
	if event.SessionID == "" {
		return nil
	}
	if err := w.refresher.RefreshHistory(ctx, event.SessionID); err != nil {
		return fmt.Errorf("refresh history for turn %d failed: %w", event.TurnID, err)
	}
	return nil
}

func (w *HistoryRefreshWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
