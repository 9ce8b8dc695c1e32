package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/data/store"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/domain/storeModel"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/internal/rag/chunker"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/GoRAG/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/GoRAG/internal/rag/ingest"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/internal/rag/llm/claude"
	"github.com/akolanti/GoRAG/internal/rag/llm/gemini"
	"github.com/akolanti/GoRAG/internal/rag/parser"
	"github.com/akolanti/GoRAG/internal/rag/retrieval"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/chromemDB"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/hybrid"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/lexical"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// Providers lets callers hand in ready clients. Nil fields are built from the settings.
type Providers struct {
	Embedder embedding.Embedder
	LLM      llm.Provider
	OCR      llm.OCR
	Vectors  vectorDB.VectorIndex
}

// App is everything the entry points share: the rag service plus the stores behind it.
type App struct {
	Settings *config.Settings
	Service  rag.Service
	JobStore jobModel.JobStore

	closers []func() error
}

var logger *logger_i.Logger

func Build(ctx context.Context, settings *config.Settings) (*App, error) {
	return BuildWith(ctx, settings, Providers{})
}

// BuildWith wires the service. External clients live until ctx is cancelled.
func BuildWith(ctx context.Context, settings *config.Settings, providers Providers) (*App, error) {
	logger = logger_i.NewLogger("app")
	a := &App{Settings: settings}

	embedder := providers.Embedder
	if embedder == nil {
		embedder = newEmbedder(ctx, settings)
	}
	llmProvider := providers.LLM
	if llmProvider == nil {
		llmProvider = newLLM(ctx, settings)
	}
	if embedder == nil || llmProvider == nil {
		logger.Debug("Available services", "EmbeddingService", embedder != nil, "LLMProvider", llmProvider != nil)
		return nil, ragErrors.Newf(ragErrors.KindAdapterUnavailable, "app.Build", "",
			"embedding provider %q or llm provider %q failed to initialize", settings.Embedding.Provider, settings.LLM.Provider)
	}
	ocr := providers.OCR
	if ocr == nil {
		ocr = newOCR(ctx, settings)
	}

	vectors := providers.Vectors
	if vectors == nil {
		var err error
		if vectors, err = newVectorIndex(ctx, settings); err != nil {
			return nil, err
		}
	}

	var lexicalIndex vectorDB.LexicalIndex
	index, err := lexical.NewIndex(settings.Retrieval.LexicalPath)
	if err != nil {
		logger.Warn("Lexical index unavailable, searching vectors only", "error", err)
	} else {
		lexicalIndex = index
		a.closers = append(a.closers, index.Close)
	}

	documents := hybrid.NewStore(vectors, lexicalIndex, embedder, hybrid.Options{
		Alpha:            settings.Retrieval.HybridAlpha,
		StoreTimeout:     settings.Timeouts.Store,
		EmbeddingTimeout: settings.Timeouts.Embedding,
	})
	if err := documents.CreateSchema(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	records, locker, jobStore, err := newStores(ctx, settings)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.JobStore = jobStore

	a.Service = rag.NewService(rag.Dependencies{
		Store:    documents,
		Records:  records,
		Locker:   locker,
		Embedder: embedder,
		LLM:      llmProvider,
		Parser:   parser.NewParser(ocr, settings.Timeouts.Generation),
	}, Options(settings))
	return a, nil
}

// Options maps the settings onto the service options.
func Options(settings *config.Settings) rag.Options {
	return rag.Options{
		Ingest: ingest.Options{
			Chunker: chunker.Options{
				ChunkSize:      settings.Chunker.ChunkSize,
				Overlap:        settings.Chunker.Overlap,
				LookBack:       settings.Chunker.LookBack,
				SnapToSentence: settings.Chunker.SnapToSentence,
			},
			BatchSize:        settings.Ingestion.BatchSize,
			Concurrency:      settings.Ingestion.Concurrency,
			EmbeddingTimeout: settings.Timeouts.Embedding,
		},
		Retrieval: retrieval.Options{
			ContextBudget: settings.Retrieval.ContextBudget,
			DefaultLimit:  settings.Retrieval.DefaultLimit,
			MaxLimit:      settings.Retrieval.MaxLimit,
		},
		MaxTokens:         settings.LLM.MaxTokens,
		GenerationTimeout: settings.Timeouts.Generation,
	}
}

// Close releases local indexes. Network clients close with the build context.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newEmbedder(ctx context.Context, settings *config.Settings) embedding.Embedder {
	s := settings.Embedding
	switch s.Provider {
	case config.ProviderOpenAI:
		return openaiEmbedding.GetOpenAIEmbeddingClient(ctx, s.Model, s.APIKey, settings.VectorStore.Dimension)
	default:
		return googleEmbedding.GetGoogleEmbeddingClient(ctx, s.Model, s.APIKey, int32(settings.VectorStore.Dimension))
	}
}

func newLLM(ctx context.Context, settings *config.Settings) llm.Provider {
	s := settings.LLM
	switch s.Provider {
	case config.ProviderAnthropic:
		return claude.GetClaudeClient(ctx, s.APIKey, s.Model)
	default:
		return gemini.GetGeminiClient(ctx, s.APIKey, s.Model)
	}
}

// newOCR uses Gemini whenever a Google key is configured. Without one scanned PDFs are rejected.
func newOCR(ctx context.Context, settings *config.Settings) llm.OCR {
	switch {
	case settings.LLM.Provider == config.ProviderGemini && settings.LLM.APIKey != "":
		return gemini.GetGeminiOCR(ctx, settings.LLM.APIKey, settings.LLM.Model)
	case settings.Embedding.Provider == config.ProviderGoogle && settings.Embedding.APIKey != "":
		return gemini.GetGeminiOCR(ctx, settings.Embedding.APIKey, config.GeminiModelName)
	}
	logger.Warn("No OCR provider configured, scanned PDFs will be rejected")
	return nil
}

func newVectorIndex(ctx context.Context, settings *config.Settings) (vectorDB.VectorIndex, error) {
	s := settings.VectorStore
	if s.Backend == config.VectorBackendQdrant {
		if holder := qdrantDB.GetQuadrantClient(ctx, s); holder != nil {
			return holder, nil
		}
		logger.Error("Qdrant is offline, falling back to chromem", "host", s.QdrantHost, "port", s.QdrantPort)
	}

	chromem, err := chromemDB.NewStore(s.ChromemPath, s.Collection)
	if err != nil {
		return nil, ragErrors.New(ragErrors.KindStoreUnavailable, "app.vector_store", "", err)
	}
	logger.Info("Using chromem vector store", "path", s.ChromemPath, "collection", s.Collection)
	return chromem, nil
}

func newStores(ctx context.Context, settings *config.Settings) (storeModel.RecordStore, storeModel.DocumentLocker, jobModel.JobStore, error) {
	var (
		records  storeModel.RecordStore
		locker   storeModel.DocumentLocker
		jobStore jobModel.JobStore
	)
	if s := store.GetRedisRecordStore(ctx, settings.Redis); s != nil {
		records = s
	}
	if s := store.GetRedisDocumentLock(ctx, settings.Redis, settings.Ingestion.LockTTL); s != nil {
		locker = s
	}
	if s := store.GetRedisJobStore(ctx, settings.Redis); s != nil {
		jobStore = s
	}
	if records != nil && locker != nil && jobStore != nil {
		return records, locker, jobStore, nil
	}

	if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
		return nil, nil, nil, ragErrors.New(ragErrors.KindStoreUnavailable, "app.redis", "",
			fmt.Errorf("redis at %s is offline", settings.Redis.Addr))
	}
	logger.Error("Redis stores are offline, using in-memory stores", "addr", settings.Redis.Addr)
	if records == nil {
		records = store.InitInMemoryRecordStore()
	}
	if locker == nil {
		locker = store.InitInMemoryDocumentLock()
	}
	if jobStore == nil {
		jobStore = store.InitInMemoryJobStore()
	}
	return records, locker, jobStore, nil
}
