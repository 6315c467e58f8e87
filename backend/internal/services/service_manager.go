package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"shipgraph/backend/internal/adapter"
	"shipgraph/backend/internal/extract"
	"shipgraph/backend/internal/graph"
	"shipgraph/backend/internal/oracle"
	"shipgraph/backend/internal/pipeline"
	"shipgraph/backend/internal/query"
	"shipgraph/backend/pkg/config"
	"shipgraph/backend/pkg/logger"
)

// ServiceManager wires the ingestion and query components from configuration
// and owns the graph store connection
type ServiceManager struct {
	Config       *config.Config
	Store        graph.Store
	LLM          *adapter.LLMAdapter
	Orchestrator *pipeline.Orchestrator
	Resolver     *query.Resolver
	Indexer      *query.Indexer

	logger *zap.Logger
	mu     sync.Mutex
	closed bool
}

// OpenStore connects to the configured graph backend
func OpenStore(ctx context.Context, cfg *config.Config) (graph.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return graph.NewMemoryStore(), nil
	case config.StoreNeo4j:
		return graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// NewServiceManager opens the store and builds every component on top of it
func NewServiceManager(ctx context.Context, cfg *config.Config) (*ServiceManager, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sm, err := newServiceManager(cfg, store)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	return sm, nil
}

func newServiceManager(cfg *config.Config, store graph.Store) (*ServiceManager, error) {
	log := logger.Get()

	llm := adapter.NewLLMAdapter(adapter.Options{
		BaseURL:        cfg.OpenAIBaseURL,
		APIKey:         cfg.OpenAIAPIKey,
		Model:          cfg.ModelID,
		EmbeddingModel: cfg.EmbeddingModel,
		MaxTokens:      cfg.MaxTokens,
		Temperature:    cfg.Temperature,
		Attempts:       cfg.OracleAttempts,
	})

	template, err := oracle.LoadTemplate(cfg.PromptPath)
	if err != nil {
		return nil, err
	}

	opts := oracle.Options{Template: template, TokenBudget: cfg.PromptTokenBudget()}
	if cfg.TokenCounting {
		// the encoding is downloaded on first use; without it prompt sizes are not measured
		if counter, err := oracle.NewTiktokenCounter(cfg.ModelID); err != nil {
			log.Warn("Token counting disabled", zap.Error(err))
		} else {
			opts.Counter = counter
		}
	}

	orch := pipeline.NewOrchestrator(
		extract.NewPDFExtractor(),
		oracle.New(llm, opts),
		graph.NewPopulator(store),
		pipeline.Options{
			ChunkSize:      cfg.ChunkSize,
			ArtifactDir:    cfg.ArtifactDir,
			ExportWorkbook: cfg.ExportWorkbook,
		},
	)

	resolver := query.NewResolver(store,
		query.NewHeuristicStrategy(query.ProseAnnotator{}),
		query.NewEmbeddingStrategy(llm, store, cfg.SimilarityThreshold),
	)

	log.Info("Services initialized",
		zap.String("store", cfg.StoreBackend),
		zap.String("model", cfg.ModelID),
		zap.Int("chunk_size", cfg.ChunkSize),
		zap.Strings("strategies", resolver.Strategies()),
	)

	return &ServiceManager{
		Config:       cfg,
		Store:        store,
		LLM:          llm,
		Orchestrator: orch,
		Resolver:     resolver,
		Indexer:      query.NewIndexer(llm, store),
		logger:       log,
	}, nil
}

// EnsureSchema creates constraints and indexes when the store supports them
func (sm *ServiceManager) EnsureSchema(ctx context.Context) error {
	initializer, ok := sm.Store.(graph.SchemaInitializer)
	if !ok {
		sm.logger.Debug("Store has no schema to initialize")
		return nil
	}
	return initializer.EnsureSchema(ctx)
}

// Closed reports whether Close has run
func (sm *ServiceManager) Closed() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.closed
}

// Close releases the store. It is safe to call more than once.
func (sm *ServiceManager) Close(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.closed {
		return nil
	}
	sm.closed = true

	if err := sm.Store.Close(ctx); err != nil {
		sm.logger.Error("Failed to close graph store", zap.Error(err))
		return err
	}
	sm.logger.Info("Graph store closed")
	return nil
}
