package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"supportdesk/internal/ai"
	appsvc "supportdesk/internal/app"
	"supportdesk/internal/cache"
	"supportdesk/internal/config"
	"supportdesk/internal/extract"
	"supportdesk/internal/model"
	mysqlClient "supportdesk/internal/platform/mysql"
	rabbitmqClient "supportdesk/internal/platform/rabbitmq"
	redisClient "supportdesk/internal/platform/redis"
	"supportdesk/internal/prompt"
	"supportdesk/internal/repository"
	"supportdesk/internal/storage"
	"supportdesk/internal/watcher"
	"supportdesk/internal/worker"
)

type App struct {
	Config *config.Config
	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	ChatService     *appsvc.ChatService
	DocumentService *appsvc.DocumentService
	Uploads         *storage.LocalStore

	historyWorker *worker.HistoryRefreshWorker
	inbox         *watcher.Inbox
	cancel        context.CancelFunc

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	app := &App{Config: cfg, StartedAt: time.Now()}
	if err := app.init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), mysqlClient.PoolConfig{
		MaxIdleConns: cfg.MySQL.MaxIdleConns,
		MaxOpenConns: cfg.MySQL.MaxOpenConns,
	})
	if err != nil {
		return err
	}
	a.MySQL = mysqlDB
	if err := mysqlDB.AutoMigrate(&model.Document{}, &model.ChatTurn{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}

	var historyCache appsvc.HistoryCache
	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
		if err != nil {
			return err
		}
		a.Redis = redisCli
		historyCache = cache.NewHistoryCache(redisCli, time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second)
	}

	var publisher appsvc.TurnEventPublisher
	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.TurnEventQueue)
		if err != nil {
			return err
		}
		a.MQConn = mqConn
		publisher = rabbitmqClient.NewTurnEventPublisher(mqConn, cfg.RabbitMQ.TurnEventQueue)
	}

	uploads, err := storage.NewLocalStore(cfg.Storage.UploadsDir, cfg.Storage.PublicPrefix)
	if err != nil {
		return err
	}
	a.Uploads = uploads

	docRepo := repository.NewDocumentRepository(mysqlDB)
	turnRepo := repository.NewChatTurnRepository(mysqlDB)
	extractor := extract.New()

	if cfg.LLM.APIKey == "" {
		log.Printf("[bootstrap] LLM_API_KEY is not set, chat replies will use the fallback message")
	}
	completer := ai.NewOpenAICompatibleClient(ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})

	a.ChatService = appsvc.NewChatService(
		docRepo,
		turnRepo,
		prompt.NewAssembler(extractor, cfg.Retrieval.ExcerptChars),
		completer,
		historyCache,
		publisher,
		appsvc.ChatOptions{
			CorpusLimit:  cfg.Retrieval.CorpusLimit,
			TopK:         cfg.Retrieval.TopK,
			HistoryLimit: cfg.Retrieval.HistoryLimit,
		},
	)
	a.DocumentService = appsvc.NewDocumentService(docRepo, uploads, extractor)

	if created, err := a.DocumentService.EnsureSeedDocument(ctx, cfg.Ingest.SeedFile); err != nil {
		log.Printf("[bootstrap] ensure seed document failed: %v", err)
	} else if created {
		log.Printf("[bootstrap] seed document created: %s", cfg.Ingest.SeedFile)
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.MQConn != nil && historyCache != nil {
		a.historyWorker = worker.NewHistoryRefreshWorker(a.MQConn, a.ChatService, cfg.RabbitMQ.TurnEventQueue)
		if err := a.historyWorker.Start(bgCtx); err != nil {
			return fmt.Errorf("start history worker failed: %w", err)
		}
	}

	if cfg.Ingest.WatchDir != "" {
		inbox, err := watcher.NewInbox(a.DocumentService, 0)
		if err != nil {
			return fmt.Errorf("create inbox watcher failed: %w", err)
		}
		a.inbox = inbox
		if err := inbox.Watch(bgCtx, cfg.Ingest.WatchDir); err != nil {
			return fmt.Errorf("watch %s failed: %w", cfg.Ingest.WatchDir, err)
		}
	}

	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.cancel != nil {
		a.cancel()
	}
	if a.inbox != nil {
		if err := a.inbox.Close(); err != nil {
			closeErr = err
		}
	}
	if a.historyWorker != nil {
		a.historyWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
