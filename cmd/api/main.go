package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/docchat-ai/rag-platform/internal/chunker"
	"github.com/docchat-ai/rag-platform/internal/config"
	"github.com/docchat-ai/rag-platform/internal/embedding"
	"github.com/docchat-ai/rag-platform/internal/handler"
	"github.com/docchat-ai/rag-platform/internal/jobs"
	"github.com/docchat-ai/rag-platform/internal/llm"
	"github.com/docchat-ai/rag-platform/internal/middleware"
	"github.com/docchat-ai/rag-platform/internal/model"
	"github.com/docchat-ai/rag-platform/internal/prompt"
	"github.com/docchat-ai/rag-platform/internal/retrieval"
	"github.com/docchat-ai/rag-platform/internal/router"
	"github.com/docchat-ai/rag-platform/internal/service"
	"github.com/docchat-ai/rag-platform/internal/store"
	"github.com/docchat-ai/rag-platform/pkg/logger"
	"github.com/docchat-ai/rag-platform/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "rag-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("tracing disabled", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	db, err := store.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}

	queue, err := jobs.Connect(jobs.Config{
		URL:       cfg.NATSURL,
		Token:     cfg.NATSToken,
		TLSCert:   cfg.NATSCertFile,
		TLSKey:    cfg.NATSKeyFile,
		TLSCACert: cfg.NATSCAFile,
	}, log)
	if err != nil {
		log.Fatal("nats connection failed", zap.Error(err))
	}
	defer queue.Close()

	if err := queue.EnsureEmbedStream(); err != nil {
		log.Fatal("embed stream setup failed", zap.Error(err))
	}

	llmClient, err := llm.NewClient(llm.Provider(cfg.LLMProvider), llm.ProviderConfig{
		OllamaBaseURL:   cfg.OllamaBaseURL,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
	})
	if err != nil {
		log.Fatal("llm client setup failed", zap.Error(err))
	}

	ch, err := chunker.New(chunker.Config{
		TargetChars:  cfg.ChunkTargetChars,
		OverlapChars: cfg.ChunkOverlapChars,
		MinChars:     cfg.ChunkMinChars,
		Language:     cfg.ChunkLanguage,
		UseSentences: cfg.ChunkUseSentences,
	})
	if err != nil {
		log.Fatal("chunker setup failed", zap.Error(err))
	}

	embedder, err := embedding.NewClient(llmClient, embedding.Config{
		Model:      cfg.EmbeddingModel,
		Dim:        cfg.EmbeddingDim,
		BatchSize:  cfg.EmbeddingBatchSize,
		MaxRetries: cfg.EmbeddingMaxRetries,
	}, log)
	if err != nil {
		log.Fatal("embedding client setup failed", zap.Error(err))
	}

	indexStore := store.NewIndexStore(db)
	conversationStore := store.NewConversationStore(db)

	retriever := retrieval.NewRetriever(indexStore, retrieval.Config{
		RRFConstant:  cfg.RRFConstant,
		FanOutFactor: cfg.FanOutFactor,
		LegTimeout:   cfg.RetrievalTimeout,
	}, log)

	classifier := router.New(llmClient, router.Config{
		Timeout:   cfg.RouterTimeout,
		MaxTokens: cfg.RouterMaxOutTokens,
	}, log)

	ingestService := service.NewIngestService(indexStore, ch, embedder, queue, log)
	chatService := service.NewChatService(
		conversationStore, embedder, retriever, classifier,
		prompt.NewAssembler(cfg.ContextCharsPerChunk), llmClient,
		service.ChatConfig{
			GenerationTimeout: cfg.GenerationTimeout,
			Temperature:       cfg.GenerationTemperature,
			MaxOutTokens:      cfg.GenerationMaxOutTokens,
			TopK:              cfg.GenerationTopK,
			HistoryMessages:   cfg.HistoryMessages,
			Defaults: model.ModelConfig{
				GenerationModel: cfg.GenerationModel,
				RouterModel:     cfg.EffectiveRouterModel(),
			},
		}, log)
	searchService := service.NewSearchService(indexStore, embedder, retriever, service.SearchConfig{
		DefaultK: cfg.GenerationTopK,
		MaxK:     cfg.SearchMaxTopK,
	}, log)

	sub, err := queue.StartEmbedWorker(ctx, ingestService.EmbedDocument)
	if err != nil {
		log.Fatal("embed worker setup failed", zap.Error(err))
	}
	defer func() { _ = sub.Drain() }()

	documentHandler := handler.NewDocumentHandler(ingestService, log)
	chatHandler := handler.NewChatHandler(chatService, log)
	searchHandler := handler.NewSearchHandler(searchService, log)
	conversationHandler := handler.NewConversationHandler(conversationStore, log)
	healthHandler := handler.NewHealthHandler(db)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/documents", documentHandler.Create)
		r.Get("/documents", documentHandler.List)
		r.Delete("/documents/{id}", documentHandler.Delete)
		r.Post("/documents/{id}/embed", documentHandler.Reembed)
		r.Get("/documents/{id}/embedding", documentHandler.EmbeddingStatus)

		r.Post("/search", searchHandler.Search)
		r.Post("/chat", chatHandler.Chat)

		r.Get("/conversations", conversationHandler.List)
		r.Delete("/conversations/{key}", conversationHandler.Delete)
		r.Get("/conversations/{key}/messages", conversationHandler.Messages)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}
