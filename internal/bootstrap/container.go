package bootstrap

import (
	"context"
	"log"

	"ai-divination-be/internal/config"
	"ai-divination-be/internal/controller"
	"ai-divination-be/internal/pkg/logger"
	"ai-divination-be/internal/repository/contract"
	"ai-divination-be/internal/repository/memory"
	"ai-divination-be/internal/repository/redisstore"
	"ai-divination-be/internal/repository/unitofwork"
	"ai-divination-be/internal/service"
	"ai-divination-be/pkg/divination/algorithm"
	"ai-divination-be/pkg/divination/explainer"
	"ai-divination-be/pkg/divination/liuren"
	"ai-divination-be/pkg/divination/orchestrator"
	"ai-divination-be/pkg/divination/retrieval"
	"ai-divination-be/pkg/embedding"
	"ai-divination-be/pkg/embedding/jina"
	"ai-divination-be/pkg/llm/factory"

	pktNats "ai-divination-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController       controller.IAuthController
	DivinationController controller.IDivinationController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	EventLogService service.IEventLogService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	case "jina":
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA")
	default:
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	apiKey := cfg.Keys.GoogleGemini
	if cfg.Ai.LLMProvider == "huggingface" {
		apiKey = cfg.Keys.HuggingFace
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		apiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
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
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// Conversation state backend
	var conversations contract.ConversationStore
	if cfg.Divination.StateBackend == "redis" {
		conversations = redisstore.NewConversationRepository(rdb)
		log.Printf("[INFO] Using conversation state backend: REDIS")
	} else {
		conversations = memory.NewConversationRepository()
		log.Printf("[INFO] Using conversation state backend: MEMORY")
	}

	// 5. Divination Core
	registry := algorithm.NewRegistry()
	advisor := liuren.NewAdvisor(llmProvider, cfg.Divination.ExplainTimeout, log.Default())
	if err := registry.Register(liuren.NewAdapter(advisor)); err != nil {
		log.Fatalf("[FATAL] Failed to register algorithm adapter: %v", err)
	}

	extractor := orchestrator.NewSlotExtractor(llmProvider, log.Default())
	machine := orchestrator.NewMachine(registry, extractor, orchestrator.Config{
		MaxClarifications: cfg.Divination.MaxClarifications,
		DefaultAlgorithm:  cfg.Divination.DefaultAlgorithm,
		DefaultTimezone:   cfg.Divination.DefaultTimezone,
	}, log.Default())

	retriever := retrieval.NewRetriever(
		embeddingProvider,
		service.NewKnowledgeSearch(uowFactory),
		retrieval.Config{
			TopK:           cfg.Divination.RetrievalTopK,
			ScoreThreshold: cfg.Divination.RetrievalMinScore,
			Timeout:        cfg.Divination.RetrievalTimeout,
		},
		log.Default(),
	)

	explainerPipeline := explainer.NewPipeline(llmProvider, explainer.Config{
		SelfReview: cfg.Divination.SelfReview,
		Timeout:    cfg.Divination.ExplainTimeout,
	}, log.Default())

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.ArchiveTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.ArchiveTopic,
		uowFactory,
	)

	var eventLogService service.IEventLogService
	if natsSub != nil {
		eventLogService = service.NewEventLogService(natsSub, sysLogger)
	}

	authService := service.NewAuthService(uowFactory, natsPub)
	divinationService := service.NewDivinationService(
		uowFactory,
		conversations,
		machine,
		registry,
		retriever,
		explainerPipeline,
		publisherService,
		natsPub,
	)

	// 7. Controllers
	return &Container{
		AuthController:       controller.NewAuthController(authService),
		DivinationController: controller.NewDivinationController(divinationService),

		ConsumerService: consumerService,
		EventLogService: eventLogService,
	}
}
