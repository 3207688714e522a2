// cmd/shopping-assistant/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shopping-assistant/internal/api"
	"shopping-assistant/internal/collaborators/inference"
	"shopping-assistant/internal/collaborators/search"
	"shopping-assistant/internal/common/camunda"
	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/database"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/observability"
	"shopping-assistant/internal/session"
	"shopping-assistant/internal/shopping/conversation"
	"shopping-assistant/internal/shopping/parser"
	"shopping-assistant/internal/shopping/ranking"
	"shopping-assistant/internal/shopping/research"

	hsu "shopping-assistant/internal/workers/shopping/handle-shopping-utterance"
	psq "shopping-assistant/internal/workers/shopping/parse-shopping-query"
	rp "shopping-assistant/internal/workers/shopping/rank-products"
	"shopping-assistant/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting shopping assistant...",
		zap.String("environment", cfg.App.Environment),
		zap.String("searchBackend", cfg.Assistant.SearchBackend),
		zap.String("sessionStore", cfg.Session.Store),
		zap.String("parserMode", cfg.Assistant.ParserMode),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	if err := obs.EnableTracing(ctx, observability.TracingOptions{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	}); err != nil {
		zapLog.Warn("tracing disabled", zap.Error(err))
	}

	var checks []api.ReadinessCheck

	// --- Collaborator A: product search ---
	var backend search.Backend
	switch cfg.Assistant.SearchBackend {
	case "http":
		backend = search.NewRemote(cfg.APIs.Search.BaseURL, cfg.APIs.Search.APIKey,
			config.GetDuration(cfg.APIs.Search.Timeout), cfg.APIs.Search.MaxRetries)
		zapLog.Info("Using remote search API", zap.String("baseURL", cfg.APIs.Search.BaseURL))
	default:
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		index := cfg.Database.Elasticsearch.ProductIndex
		if err := esClient.EnsureProductIndex(ctx, index); err != nil {
			zapLog.Fatal("product index setup failed", zap.Error(err))
		}
		backend = search.NewElasticsearchCatalog(esClient, index, log)
		checks = append(checks, api.ReadinessCheck{Name: "elasticsearch", Check: func(context.Context) error {
			return esClient.Ping()
		}})
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", index))
	}
	searcher := search.NewGuarded(backend, config.GetDuration(cfg.APIs.Search.Timeout), log)

	// --- Collaborator B: inference ---
	genai := inference.NewGenAI(inference.Config{
		BaseURL:     cfg.APIs.GenAI.BaseURL,
		APIKey:      cfg.APIs.GenAI.APIKey,
		Model:       cfg.APIs.GenAI.Model,
		Timeout:     config.GetDuration(cfg.APIs.GenAI.Timeout),
		MaxRetries:  cfg.APIs.GenAI.MaxRetries,
		MaxTokens:   cfg.APIs.GenAI.MaxTokens,
		Temperature: cfg.APIs.GenAI.Temperature,
	}, log)
	inferenceService := inference.NewService(genai, log)

	// --- Decision engine ---
	patterns := parser.New(log)
	var queryParser parser.QueryParser = patterns
	if cfg.Assistant.ParserMode == "ai" {
		queryParser = parser.NewAIParser(inferenceService, patterns, log)
	}
	ranker := ranking.New(log)

	engine := conversation.NewEngine(conversation.Dependencies{
		Parser:    queryParser,
		Patterns:  patterns,
		Searcher:  searcher,
		Inference: inferenceService,
		Ranker:    ranker,
		Coordinator: research.New(inferenceService, research.Config{
			HighValueThreshold: cfg.Assistant.HighValueThreshold,
			QualityTerms:       cfg.Assistant.QualityTerms,
		}, log),
		Observability: obs,
	}, conversation.Config{
		MaxResults:       cfg.Assistant.MaxResults,
		CheaperStepRatio: cfg.Assistant.CheaperStepRatio,
		CheaperStepCap:   cfg.Assistant.CheaperStepCap,
	}, log)

	// --- Session store ---
	ttl := time.Duration(cfg.Session.TTL) * time.Second
	var store session.Store
	switch cfg.Session.Store {
	case "redis":
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		store = session.NewRedisStore(redis, cfg.Database.Redis.KeyPrefix, ttl)
		checks = append(checks, api.ReadinessCheck{Name: "redis", Check: redis.Ping})
		zapLog.Info("Redis connected successfully")
	default:
		store = session.NewMemoryStore(ttl, time.Duration(cfg.Session.CleanupInterval)*time.Second)
	}

	// --- Transcript ---
	var transcript session.Transcript
	if cfg.Session.Transcript {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("transcript schema setup failed", zap.Error(err))
		}
		transcript = session.NewTranscriptRepository(pg.DB)
		checks = append(checks, api.ReadinessCheck{Name: "postgres", Check: pg.Ping})
		zapLog.Info("PostgreSQL connected successfully")
	}

	manager := session.NewManager(store, engine, transcript, log)

	// --- Zeebe workers ---
	var zeebe *camunda.Client
	var jobWorkers []worker.JobWorker
	if cfg.Camunda.Enabled {
		zcfg := camunda.ConfigFrom(cfg.Camunda)
		zcfg.RetryConfig = &camunda.RetryConfig{MaxRetries: 10, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
		zeebe, err = camunda.Connect(context.Background(), zcfg)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		checks = append(checks, api.ReadinessCheck{Name: "zeebe", Check: zeebe.HealthCheck})
		zapLog.Info("Zeebe client connected successfully")

		client := zeebe.GetClient()

		checkVariables, err := registry.Default().VariableChecker()
		if err != nil {
			zapLog.Fatal("activity registry invalid", zap.Error(err))
		}

		psqCfg := config.GetWorkerConfig(cfg, psq.TaskType)
		psqHandler := psq.NewHandler(&psq.Config{Timeout: config.GetDuration(psqCfg.Timeout)}, queryParser, log)

		rpCfg := config.GetWorkerConfig(cfg, rp.TaskType)
		rpHandler := rp.NewHandler(&rp.Config{
			MaxItems: cfg.Assistant.MaxResults,
			Timeout:  config.GetDuration(rpCfg.Timeout),
		}, ranker, log)

		hsuCfg := config.GetWorkerConfig(cfg, hsu.TaskType)
		hsuHandler := hsu.NewHandler(&hsu.Config{
			Timeout:       config.GetDuration(hsuCfg.Timeout),
			CreateMissing: true,
		}, manager, log)

		for _, w := range []struct {
			taskType string
			wcfg     config.WorkerConfig
			handle   camunda.HandlerFunc
		}{
			{psq.TaskType, psqCfg, psqHandler.Handle},
			{rp.TaskType, rpCfg, rpHandler.Handle},
			{hsu.TaskType, hsuCfg, hsuHandler.Handle},
		} {
			handle := camunda.CheckVariables(w.taskType, checkVariables, w.handle, log)
			if jw := camunda.StartWorker(client, w.taskType, w.wcfg, handle, log); jw != nil {
				jobWorkers = append(jobWorkers, jw)
			}
		}
		zapLog.Info("Workers registered", zap.Int("count", len(jobWorkers)))
	}

	// --- HTTP host ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewServer(manager, log, checks...).Router(config.GetDuration(cfg.Server.WriteTimeout)),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	for _, jw := range jobWorkers {
		jw.Close()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Shopping assistant stopped gracefully")
}
