package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"savannatrails-concierge/internal/ai"
	"savannatrails-concierge/internal/cache"
	"savannatrails-concierge/internal/config"
	"savannatrails-concierge/internal/model"
	mysqlClient "savannatrails-concierge/internal/platform/mysql"
	rabbitmqClient "savannatrails-concierge/internal/platform/rabbitmq"
	redisClient "savannatrails-concierge/internal/platform/redis"
	"savannatrails-concierge/internal/repository"
	"savannatrails-concierge/internal/worker"
)

// App is the composition root. The embedder is constructed once here and
// shared read-only; it lazily loads model weights on first use.
type App struct {
	Config         *config.Config
	MySQL          *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	Embedder       *ai.Embedder
	LLMClient      *ai.CompletionClient
	KnowledgeCache *cache.KnowledgeCache
	AuditPublisher *rabbitmqClient.AuditPublisher
	AuditWorker    *worker.AuditPersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.Document{},
		&model.Conversation{},
		&model.Subscriber{},
		&model.ContactMessage{},
		&model.AuditEntry{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	auditRepo := repository.NewAuditRepository(mysqlDB)
	auditWorker := worker.NewAuditPersistWorker(mqConn, auditRepo, cfg.RabbitMQ.AuditPersistQueue)
	if err := auditWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start audit worker failed: %w", err)
	}

	return &App{
		Config: cfg,
		MySQL:  mysqlDB,
		Redis:  redisCli,
		MQConn: mqConn,
		Embedder: ai.NewEmbedder(
			cfg.Embedding.ModelPath,
			cfg.Embedding.VocabPath,
			cfg.Embedding.ONNXSharedLibPath,
			cfg.Embedding.MaxSeqLen,
		),
		LLMClient: ai.NewCompletionClient(),
		KnowledgeCache: cache.NewKnowledgeCache(
			redisCli,
			time.Duration(cfg.Redis.CandidateTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.CandidateDirtyTTLSeconds)*time.Second,
		),
		AuditPublisher: rabbitmqClient.NewAuditPublisher(mqConn, cfg.RabbitMQ.AuditPersistQueue),
		AuditWorker:    auditWorker,
		StartedAt:      time.Now(),
	}, nil
}

// LLM returns the completion backend settings from config.
func (a *App) LLM() ai.ChatConfig {
	return ai.ChatConfig{
		BaseURL: a.Config.LLM.BaseURL,
		APIKey:  a.Config.LLM.APIKey,
		Model:   a.Config.LLM.Model,
	}
}

// LLMConfigured reports whether a completion credential is present.
func (a *App) LLMConfigured() bool {
	return a.LLM().Configured()
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.AuditWorker != nil {
		a.AuditWorker.Close()
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
