package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"tandyr-pos/pkg/logger"
	"tandyr-pos/pkg/rabbitmq"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

const seenRetention = 30 * time.Minute

// Worker consumes order-created events and fans them out to the chat
// broadcast and the spreadsheet export. Failures are logged and swallowed:
// the cashier already got a success reply at commit time.
type Worker struct {
	channel     *amqp.Channel
	broadcaster *Broadcaster
	exporter    *Exporter
	logger      *logger.Logger

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewWorker(channel *amqp.Channel, broadcaster *Broadcaster, exporter *Exporter, log *logger.Logger) *Worker {
	return &Worker{
		channel:     channel,
		broadcaster: broadcaster,
		exporter:    exporter,
		logger:      log,
		seen:        make(map[string]time.Time),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	deliveries, err := w.channel.Consume(
		rabbitmq.OrderCreatedQueue, // queue
		"",                         // consumer
		false,                      // auto-ack
		false,                      // exclusive
		false,                      // no-local
		false,                      // no-wait
		nil,                        // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("startup", "dispatch_worker_started", "Side-effect dispatch worker started")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			g.Go(func() error {
				w.Process(ctx, delivery.Body)
				// Best-effort fan-out: ack regardless of the outcome so a
				// broken export config cannot wedge the queue.
				if err := delivery.Ack(false); err != nil {
					w.logger.Error("", "ack_failed", "Failed to ack delivery", err)
				}
				return nil
			})
		}
	}
}

// Process handles one raw event body. Exported for tests.
func (w *Worker) Process(ctx context.Context, body []byte) {
	var event OrderCreated
	if err := json.Unmarshal(body, &event); err != nil {
		w.logger.Error("", "event_parse_failed", "Failed to parse order event", err)
		return
	}

	if w.alreadySeen(event.EventID) {
		w.logger.Debug(event.RequestID, "event_duplicate",
			fmt.Sprintf("Skipping redelivered event %s", event.EventID))
		return
	}

	if err := w.broadcaster.Broadcast(ctx, event); err != nil {
		w.logger.Error(event.RequestID, "broadcast_failed",
			fmt.Sprintf("Failed to broadcast order %s", event.Order.Number), err)
	}

	if err := w.exporter.Export(ctx, event); err != nil {
		w.logger.Error(event.RequestID, "sheet_append_failed",
			fmt.Sprintf("Failed to export order %s", event.Order.Number), err)
	}
}

func (w *Worker) alreadySeen(eventID string) bool {
	if eventID == "" {
		return false
	}
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	for id, at := range w.seen {
		if now.Sub(at) > seenRetention {
			delete(w.seen, id)
		}
	}
	if _, ok := w.seen[eventID]; ok {
		return true
	}
	w.seen[eventID] = now
	return false
}
