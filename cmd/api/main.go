package main

import (
	"context"
	"net/http"
	"time"

	"tasksmith/pkg/translator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	datastoreadapter "tasksmith/internal/adapter/datastore"
	dbadapter "tasksmith/internal/adapter/db"
	httpadapter "tasksmith/internal/adapter/http"
	"tasksmith/internal/adapter/http/handlers"
	httpmiddleware "tasksmith/internal/adapter/http/middleware"
	"tasksmith/internal/adapter/llm"
	"tasksmith/internal/adapter/mongodb"
	appservice "tasksmith/internal/app/service"
	"tasksmith/internal/config"
	"tasksmith/internal/core/ports"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	// Make zap available to packages that log through zap.L().
	zap.ReplaceGlobals(logger)
	defer func() {
		if err := logger.Sync(); err != nil {
			zap.L().Debug("failed to sync logger", zap.Error(err))
		}
	}()

	translator.InitTranslator(translator.Config{
		TranslationFolder:  "pkg/translator/translation",
		SupportedLanguages: []string{translator.LanguageFr, translator.LanguageEn},
	})

	cfg := config.LoadConfig()
	ctx := context.Background()

	store, err := newTaskStore(cfg)
	if err != nil {
		logger.Fatal("unsupported store backend", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	if err := store.Connect(ctx); err != nil {
		logger.Fatal("failed to connect to task store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("failed to close task store", zap.Error(err))
		}
	}()

	prompts, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		logger.Fatal("failed to load prompts", zap.String("file", cfg.PromptsFile), zap.Error(err))
	}

	// Without a usable model the API still serves CRUD; subtask generation
	// reports itself as not configured.
	var generator ports.SubtaskGenerator
	modelProvider := ""
	model, err := newModelClient(ctx, cfg)
	if err != nil {
		logger.Warn("subtask generation disabled", zap.String("provider", cfg.ModelProvider), zap.Error(err))
	} else {
		pipeline, err := appservice.NewSubtaskPipeline(model, prompts.SystemPrompt, cfg.ModelTimeout)
		if err != nil {
			logger.Fatal("failed to build subtask pipeline", zap.Error(err))
		}
		generator = pipeline
		modelProvider = cfg.ModelProvider
	}

	taskService := appservice.NewTaskService(store, generator)

	r := gin.New()
	r.Use(gin.Recovery(), httpmiddleware.GinZapMiddleware(logger))
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Fatal("invalid trusted proxies", zap.Error(err))
	}
	healthHandler := handlers.NewHealthHandler(store, cfg.StoreBackend, modelProvider)
	taskHandler := handlers.NewTaskHandler(taskService)
	httpadapter.RegisterRoutes(r, healthHandler, taskHandler)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	addr := ":" + port
	logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("store", cfg.StoreBackend),
		zap.String("model", modelProvider),
	)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("could not start server", zap.Error(err))
	}
}

func newTaskStore(cfg *config.Config) (ports.TaskStore, error) {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		return mongodb.NewTaskStore(mongodb.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
			Timeout:    cfg.StoreTimeout,
		}), nil
	case config.StoreDatastore:
		return datastoreadapter.NewTaskStore(datastoreadapter.Config{
			ProjectID: cfg.DatastoreProject,
			Namespace: cfg.DatastoreNamespace,
			Kind:      cfg.DatastoreKind,
			Timeout:   cfg.StoreTimeout,
		}), nil
	case config.StoreMySQL:
		return dbadapter.NewTaskStore(cfg), nil
	default:
		return nil, config.ErrUnknownBackend
	}
}

func newModelClient(ctx context.Context, cfg *config.Config) (ports.ModelClient, error) {
	switch cfg.ModelProvider {
	case config.ModelGemini:
		client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ModelOllama:
		client, err := llm.NewOllamaClient(llm.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
		}, &http.Client{Timeout: cfg.ModelTimeout})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, config.ErrUnknownProvider
	}
}
