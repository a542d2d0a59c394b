package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spacesedan/reviewflow/config"
	"github.com/spacesedan/reviewflow/internal/analysis"
	"github.com/spacesedan/reviewflow/internal/clients"
	"github.com/spacesedan/reviewflow/internal/clients/kafka_client"
	"github.com/spacesedan/reviewflow/internal/db"
	"github.com/spacesedan/reviewflow/internal/monitoring"
	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/spacesedan/reviewflow/internal/web"
)

// App is every long-lived resource one process needs.
type App struct {
	Store       db.Store
	Pipeline    *processing.Pipeline
	Metrics     *monitoring.Metrics
	Credentials web.CredentialStatus

	valkey   *clients.ValkeyClient
	producer *kafka_client.Producer
}

// OpenApp builds the store for the configured backend and wires the
// pipeline around it. Valkey and Kafka are optional: a failure to reach
// either is logged and the app runs without it.
func OpenApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Store: store, Metrics: monitoring.NewMetrics()}

	if cfg.Valkey.Address != "" {
		vc, err := clients.NewValkeyClient(ctx, clients.ValkeyConfig{
			Address:  cfg.Valkey.Address,
			Password: cfg.Valkey.Password,
			UseTLS:   cfg.Valkey.TLS,
			TTL:      cfg.Valkey.TTL,
		})
		if err != nil {
			slog.Warn("[App] Analysis cache unavailable, continuing without it",
				slog.String("error", err.Error()))
		} else {
			app.valkey = vc
			app.Store = db.NewCachedStore(store, vc)
		}
	}

	naver := clients.NewNaverClient(cfg.Naver.ClientID, cfg.Naver.ClientSecret, cfg.Naver.Endpoint, cfg.Naver.Timeout)
	openai := clients.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
	analyzer := analysis.NewAnalyzer(openai, analysis.Options{
		Model:    cfg.OpenAI.Model,
		MaxChars: cfg.OpenAI.MaxChars,
	})
	app.Credentials = web.CredentialStatus{
		Naver:  naver.HasCredentials(),
		OpenAI: analyzer.HasCredentials(),
	}

	app.Pipeline = processing.NewPipeline(naver, analyzer, app.Store)
	app.Pipeline.Metrics = app.Metrics

	kcfg := kafkaConfig(cfg)
	if kcfg.Enabled() {
		producer, err := kafka_client.NewProducer(kcfg)
		if err != nil {
			slog.Warn("[App] Pipeline events disabled",
				slog.String("error", err.Error()))
		} else {
			app.producer = producer
			app.Pipeline.Events = producer
		}
	}

	slog.Info("[App] Ready",
		slog.String("store", cfg.Store.Backend),
		slog.Bool("analysis_cache", app.valkey != nil),
		slog.Bool("events", app.producer != nil),
		slog.Bool("naver_credentials", app.Credentials.Naver),
		slog.Bool("openai_credentials", app.Credentials.OpenAI))
	return app, nil
}

func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	switch cfg.Store.Backend {
	case config.BACKEND_POSTGRES:
		return db.OpenPostgres(ctx, cfg.Store.PostgresDSN)
	case config.BACKEND_DYNAMODB:
		client, err := clients.NewDynamoDBClient(ctx, clients.AWSConfig{
			Region:   cfg.Store.AWSRegion,
			Endpoint: cfg.Store.AWSEndpoint,
		})
		if err != nil {
			return nil, err
		}
		store := db.NewDynamoStore(client, db.DynamoTables{
			Posts:    cfg.Store.PostsTable,
			Analyses: cfg.Store.AnalysesTable,
		})
		if err := store.EnsureTables(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case config.BACKEND_SQLITE, "":
		return db.OpenSQLite(ctx, cfg.Store.SQLitePath)
	default:
		return nil, fmt.Errorf("[App] unknown store backend %q", cfg.Store.Backend)
	}
}

func kafkaConfig(cfg *config.Config) kafka_client.KafkaConfig {
	return kafka_client.KafkaConfig{
		Broker:  cfg.Kafka.Broker,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	}
}

func (a *App) Close() error {
	if a.producer != nil {
		a.producer.Close()
	}
	if a.valkey != nil {
		a.valkey.Close()
	}
	return a.Store.Close()
}
