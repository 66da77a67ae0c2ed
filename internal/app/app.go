package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/handlers"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/services/chat"
	"github.com/ternarybob/respondeo/internal/services/embeddings"
	"github.com/ternarybob/respondeo/internal/services/ingest"
	"github.com/ternarybob/respondeo/internal/services/llm"
	"github.com/ternarybob/respondeo/internal/services/prompts"
	"github.com/ternarybob/respondeo/internal/services/rerank"
	"github.com/ternarybob/respondeo/internal/services/retriever"
	"github.com/ternarybob/respondeo/internal/services/segment"
	"github.com/ternarybob/respondeo/internal/services/summary"
	"github.com/ternarybob/respondeo/internal/services/websearch"
	badgerstore "github.com/ternarybob/respondeo/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB          *badgerstore.BadgerDB
	KV          interfaces.KeyValueStorage
	VectorIndex interfaces.VectorIndex
	FileStore   interfaces.FileStore
	Maintenance *badgerstore.Maintenance

	// Model services
	LLM      interfaces.LLMService
	Embedder interfaces.EmbeddingService
	Registry *prompts.Registry

	// Pipeline
	Pipelines    *chat.PipelineFactory
	IndexBuilder *ingest.IndexBuilder

	// HTTP handlers
	ChatHandler   *handlers.ChatHandler
	FileHandler   *handlers.FileHandler
	StatusHandler *handlers.StatusHandler
}

// New wires the full application from configuration. Construction is
// fail-fast: a bad API key surfaces at the first request, everything else
// surfaces here.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	if err := a.initStorage(); err != nil {
		return nil, err
	}
	if err := a.initModelServices(); err != nil {
		a.Close()
		return nil, err
	}
	a.initPipeline()

	logger.Info().
		Str("llm_provider", config.LLM.DefaultProvider).
		Str("embedding_model", a.Embedder.ModelName()).
		Msg("Application initialized")

	return a, nil
}

func (a *App) initStorage() error {
	db, err := badgerstore.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.DB = db
	a.KV = badgerstore.NewKVStorage(db, a.Logger)
	a.FileStore = badgerstore.NewFileStore(db, a.Logger)

	a.Maintenance = badgerstore.NewMaintenance(db, a.Logger)
	if err := a.Maintenance.Start(a.Config.Storage.Badger.GCSchedule); err != nil {
		return fmt.Errorf("failed to start storage maintenance: %w", err)
	}
	return nil
}

func (a *App) initModelServices() error {
	llmService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM service: %w", err)
	}
	a.LLM = llmService

	embedder, err := embeddings.NewGeminiEmbedder(&a.Config.Embeddings, a.Config.Gemini.APIKey, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	a.Embedder = embedder
	if a.Config.Embeddings.CacheEnabled {
		a.Embedder = embeddings.NewCachedEmbedder(embedder, a.KV, a.Logger)
	}

	a.VectorIndex = badgerstore.NewVectorIndex(a.DB, a.Embedder, a.Logger)

	registry, err := prompts.NewRegistry(a.Config.Prompts.Dir)
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	a.Registry = registry
	return nil
}

func (a *App) initPipeline() {
	cfg := a.Config
	maxTurns := cfg.History.MaxTurns

	summaries := summary.NewService(a.LLM, a.Registry, a.Logger)
	a.IndexBuilder = ingest.NewIndexBuilder(a.VectorIndex, a.FileStore, summaries, a.Logger)

	fileRetriever := retriever.NewRetriever(a.VectorIndex, cfg.Retrieval.MaxDocuments, cfg.Retrieval.MinSimilarity, a.Logger)

	segmenter := segment.NewSegmenter(a.Logger)
	reranker := rerank.NewReranker(a.Embedder, cfg.Rerank.TopK, cfg.Rerank.MinSimilarity, a.Logger)
	provider := websearch.NewDuckDuckGoProvider(cfg.WebSearch.UserAgent, a.Logger)
	fetcher := websearch.NewFetcher(cfg.WebSearch.FetchTimeout, cfg.WebSearch.RequestsPerSecond, cfg.WebSearch.UserAgent, a.Logger)
	webRetriever := websearch.NewRetriever(provider, fetcher, segmenter, reranker, cfg.WebSearch.MaxResults, cfg.WebSearch.MinLength, a.Logger)

	a.Pipelines = chat.NewPipelineFactory(
		chat.NewRephraser(a.LLM, a.Registry, maxTurns, a.Logger),
		chat.NewRouter(a.LLM, a.Registry, a.FileStore, a.Logger),
		chat.NewGenerator(a.LLM, a.Registry, maxTurns, a.Logger),
		fileRetriever,
		webRetriever,
		a.Logger,
	)

	a.ChatHandler = handlers.NewChatHandler(a.Pipelines, a.Logger)
	a.FileHandler = handlers.NewFileHandler(a.IndexBuilder, a.FileStore, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.LLM, a.Logger)
}

// Close releases held resources in reverse construction order.
func (a *App) Close() {
	if a.Maintenance != nil {
		a.Maintenance.Stop()
	}
	if a.LLM != nil {
		if err := a.LLM.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
