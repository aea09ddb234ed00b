package bootstrap

import (
	"context"
	"log"
	"time"

	"multilingual-rag-be/internal/config"
	"multilingual-rag-be/internal/controller"
	"multilingual-rag-be/internal/handler"
	"multilingual-rag-be/internal/pkg/logger"
	"multilingual-rag-be/internal/repository/contract"
	"multilingual-rag-be/internal/repository/memory"
	redisrepo "multilingual-rag-be/internal/repository/redis"
	"multilingual-rag-be/internal/repository/unitofwork"
	"multilingual-rag-be/internal/service"
	"multilingual-rag-be/internal/websocket"
	"multilingual-rag-be/pkg/embedding"
	"multilingual-rag-be/pkg/embedding/jina"
	"multilingual-rag-be/pkg/llm/factory"
	"multilingual-rag-be/pkg/rag/agent"
	"multilingual-rag-be/pkg/rag/detect"
	"multilingual-rag-be/pkg/rag/pipeline"
	"multilingual-rag-be/pkg/rag/retrieve"

	pktNats "multilingual-rag-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	QueryController    controller.IQueryController
	DocumentController controller.IDocumentController
	HealthController   controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	// Application logger (Exposed for server middleware)
	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := log.Default()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Model Providers
	// Initialize Embedding Provider based on Config
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// One caller per pipeline stage so cheap and expensive models can be
	// mixed and each stage keeps its own cost counters.
	newCaller := func(name string, m config.AgentModel) *agent.Caller {
		baseURL := cfg.Ai.OpenRouterBaseURL
		if cfg.Ai.LLMProvider == "ollama" {
			baseURL = cfg.Ai.OllamaBaseURL
		}
		provider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, m.Model, baseURL, cfg.Keys.OpenRouter)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize LLM provider for %s: %v", name, err)
		}
		return agent.NewCaller(name, provider, agent.Pricing{
			InputPer1K:  m.InputPer1K,
			OutputPer1K: m.OutputPer1K,
		}, ragLogger)
	}

	callers := pipeline.Callers{
		Router:      newCaller("router", cfg.Ai.Router),
		Planner:     newCaller("planner", cfg.Ai.Planner),
		Analyzer:    newCaller("analyzer", cfg.Ai.Analyzer),
		Synthesizer: newCaller("synthesizer", cfg.Ai.Synthesizer),
		Validator:   newCaller("validator", cfg.Ai.Validator),
	}
	log.Printf("[INFO] Using LLM Provider: %s", cfg.Ai.LLMProvider)

	// 4. Query Pipeline
	searcher := service.NewSearchService(uowFactory, embeddingProvider)

	ragConfig := pipeline.DefaultConfig()
	ragConfig.NumQueries = cfg.Rag.NumSearchQueries
	ragConfig.TopK = cfg.Rag.TopKRerank
	ragConfig.Retrieval = retrieve.Config{
		TopKRetrieval: cfg.Rag.TopKRetrieval,
		TopKRerank:    cfg.Rag.TopKRerank,
		MinScore:      cfg.Rag.MinSimilarityScore,
	}
	ragConfig.FallbackLanguage = cfg.Rag.FallbackLanguage

	ragPipeline := pipeline.NewPipeline(ragConfig, callers, searcher, ragLogger)

	// 5. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	redisUp := true
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		redisUp = false
	}

	// Response cache: redis when reachable so cache entries survive restarts
	// and are shared across instances, in-memory otherwise.
	cacheTTL := time.Duration(cfg.Rag.CacheTTLMinutes) * time.Minute
	var responseCache contract.ResponseCache
	if redisUp {
		responseCache = redisrepo.NewResponseCache(rdb, cacheTTL)
		log.Printf("[INFO] Response cache: redis (ttl %s)", cacheTTL)
	} else {
		responseCache = memory.NewResponseCache(cacheTTL)
		log.Printf("[INFO] Response cache: in-memory (ttl %s)", cacheTTL)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Documents.ProcessTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Documents.ProcessTopic,
		uowFactory,
		embeddingProvider,
		natsPub,
		responseCache,
		cfg.Documents.ChunkSize,
		cfg.Documents.ChunkOverlap,
	)

	detector := detect.NewDetector(ragLogger)

	queryService := service.NewQueryService(ragPipeline, responseCache, cfg.Rag.FallbackLanguage)
	documentService := service.NewDocumentService(
		uowFactory,
		publisherService,
		natsPub,
		responseCache,
		detector,
		cfg.Documents,
		cfg.Rag.FallbackLanguage,
	)

	// 7. Notification System
	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger) // Hub implements NotificationDelivery

	// Start Service (Worker)
	if natsSub != nil {
		go notifService.Start()
	}

	// Handler
	notifHandler := handler.NewNotificationHandler(wsHub, wsLogger)

	// 8. Controllers
	// Note: We return the container with public fields for the server to register
	return &Container{
		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
		QueryController:     controller.NewQueryController(queryService),
		DocumentController:  controller.NewDocumentController(documentService),
		HealthController:    controller.NewHealthController(db, cfg),

		ConsumerService: consumerService,

		Logger: sysLogger,
	}
}
