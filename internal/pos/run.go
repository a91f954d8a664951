package pos

import (
	"context"
	"fmt"
	"time"

	"tandyr-pos/internal/bot"
	"tandyr-pos/internal/catalog"
	"tandyr-pos/internal/config"
	"tandyr-pos/internal/dialogue"
	"tandyr-pos/internal/dispatch"
	"tandyr-pos/internal/order"
	"tandyr-pos/internal/session"
	"tandyr-pos/internal/settings"
	"tandyr-pos/pkg/db"
	"tandyr-pos/pkg/logger"
	"tandyr-pos/pkg/rabbitmq"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Deps are the external collaborators the core cannot construct itself:
// the chat transport, the update source, the spreadsheet client and the
// settings cipher.
type Deps struct {
	Transport bot.Transport
	Source    bot.Source
	Appender  dispatch.SheetAppender
	Cipher    settings.Cipher
}

// Execute wires the point-of-sale services and runs them until the
// context is cancelled.
func Execute(ctx context.Context, cfg *config.Config, log *logger.Logger, deps Deps) error {
	dbPool, err := db.ConnectDB(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbPool.Close()

	rmq, err := rabbitmq.ConnectRabbitMQ(&cfg.RabbitMQ, log)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer rmq.Close()

	ttl := time.Duration(cfg.Session.TTLHours) * time.Hour
	var sessions session.Store
	var memory *session.Memory
	if cfg.Session.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		sessions = session.NewRedis(client, ttl)
		log.Info("startup", "session_store_ready", "Using redis session store")
	} else {
		memory = session.NewMemory(ttl)
		sessions = memory
		log.Info("startup", "session_store_ready", "Using in-memory session store")
	}

	settingsStore := settings.NewStore(settings.NewPgRepo(dbPool), deps.Cipher)

	orderSvc := order.NewService(order.NewPgRepo(dbPool), order.NewPgUserDirectory(dbPool), log)
	publisher := dispatch.NewPublisher(rmq.Channel, log)
	machine := dialogue.NewMachine(catalog.NewRepo(dbPool), orderSvc, publisher, deps.Transport, log)

	broadcaster := dispatch.NewBroadcaster(deps.Transport, settingsStore)
	exporter := dispatch.NewExporter(deps.Appender, settingsStore)
	worker := dispatch.NewWorker(rmq.Channel, broadcaster, exporter, log)

	app := &App{
		machine:  machine,
		sessions: sessions,
		logger:   log,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(ctx) })
	g.Go(func() error { return app.runUpdateLoop(ctx, deps.Source) })
	if memory != nil {
		g.Go(func() error { return memory.Run(ctx) })
	}
	return g.Wait()
}

type App struct {
	machine  *dialogue.Machine
	sessions session.Store
	logger   *logger.Logger
}

// runUpdateLoop pulls inbound chat events and feeds them through the
// dialogue machine. The transport delivers per-chat events in order, so
// handling them sequentially keeps each session single-writer.
func (a *App) runUpdateLoop(ctx context.Context, src bot.Source) error {
	updates := src.Updates(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return fmt.Errorf("update channel closed")
			}
			a.handleUpdate(ctx, upd)
		}
	}
}

func (a *App) handleUpdate(ctx context.Context, upd bot.Update) {
	sess, ok, err := a.sessions.Get(ctx, upd.ChatID)
	if err != nil {
		a.logger.Error("", "session_load_failed", "Failed to load session", err)
		return
	}

	if !ok {
		// First contact opens a fresh dialogue; the opening update is
		// consumed by the greeting.
		sess = dialogue.NewSession(upd.ChatID)
		if err := a.machine.Start(ctx, sess); err != nil {
			a.logger.Error("", "dialogue_start_failed", "Failed to open dialogue", err)
			return
		}
		if err := a.sessions.Put(ctx, sess); err != nil {
			a.logger.Error("", "session_save_failed", "Failed to save session", err)
		}
		return
	}

	done, err := a.machine.Handle(ctx, sess, upd)
	if err != nil {
		a.logger.Error("", "update_handling_failed", "Failed to handle update", err)
	}

	if done {
		if err := a.sessions.Delete(ctx, upd.ChatID); err != nil {
			a.logger.Error("", "session_delete_failed", "Failed to discard session", err)
		}
		return
	}
	if err := a.sessions.Put(ctx, sess); err != nil {
		a.logger.Error("", "session_save_failed", "Failed to save session", err)
	}
}
