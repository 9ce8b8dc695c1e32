package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings is the runtime configuration. Constants in this package are the defaults,
// an optional YAML file overrides them and environment variables override both.
type Settings struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
	LogJSON    bool   `yaml:"log_json"`
	UploadDir  string `yaml:"upload_dir"`
	// APIToken enables bearer authentication on the HTTP API when set.
	APIToken string `yaml:"api_token"`

	Chunker     ChunkerSettings     `yaml:"chunker"`
	Ingestion   IngestionSettings   `yaml:"ingestion"`
	Retrieval   RetrievalSettings   `yaml:"retrieval"`
	Timeouts    TimeoutSettings     `yaml:"timeouts"`
	VectorStore VectorStoreSettings `yaml:"vector_store"`
	Redis       RedisSettings       `yaml:"redis"`
	Embedding   EmbeddingSettings   `yaml:"embedding"`
	LLM         LLMSettings         `yaml:"llm"`
}

type ChunkerSettings struct {
	ChunkSize      int  `yaml:"chunk_size"`
	Overlap        int  `yaml:"overlap"`
	LookBack       int  `yaml:"look_back"`
	SnapToSentence bool `yaml:"snap_to_sentence"`
}

type IngestionSettings struct {
	BatchSize   int           `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	LockTTL     time.Duration `yaml:"lock_ttl"`
}

type RetrievalSettings struct {
	ContextBudget int     `yaml:"context_budget"`
	DefaultLimit  int     `yaml:"default_limit"`
	MaxLimit      int     `yaml:"max_limit"`
	HybridAlpha   float64 `yaml:"hybrid_alpha"`
	LexicalPath   string  `yaml:"lexical_index_path"`
}

type TimeoutSettings struct {
	Embedding  time.Duration `yaml:"embedding"`
	Store      time.Duration `yaml:"store"`
	Generation time.Duration `yaml:"generation"`
}

type VectorStoreSettings struct {
	Backend     string `yaml:"backend"`
	QdrantHost  string `yaml:"qdrant_host"`
	QdrantPort  int    `yaml:"qdrant_port"`
	QdrantTLS   bool   `yaml:"qdrant_tls"`
	QdrantKey   string `yaml:"qdrant_api_key"`
	Collection  string `yaml:"collection"`
	Dimension   int    `yaml:"dimension"`
	ChromemPath string `yaml:"chromem_path"`
}

type RedisSettings struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

type EmbeddingSettings struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

type LLMSettings struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	MaxTokens int    `yaml:"max_tokens"`
}

func Defaults() *Settings {
	return &Settings{
		ListenAddr: ServerListenAddr,
		LogLevel:   "debug",
		LogJSON:    IS_PROD,
		UploadDir:  UploadDirectory,
		Chunker: ChunkerSettings{
			ChunkSize:      DefaultChunkSize,
			Overlap:        DefaultChunkOverlap,
			LookBack:       DefaultChunkSize / 4,
			SnapToSentence: true,
		},
		Ingestion: IngestionSettings{
			BatchSize:   EmbeddingBatchSize,
			Concurrency: EmbeddingConcurrency,
			LockTTL:     DocumentLockTTL,
		},
		Retrieval: RetrievalSettings{
			ContextBudget: ContextCharBudget,
			DefaultLimit:  DefaultSearchLimit,
			MaxLimit:      MaxSearchLimit,
			HybridAlpha:   HybridAlpha,
			LexicalPath:   LexicalIndexPath,
		},
		Timeouts: TimeoutSettings{
			Embedding:  EmbeddingTimeout,
			Store:      StoreTimeout,
			Generation: GenerationTimeout,
		},
		VectorStore: VectorStoreSettings{
			Backend:     VectorBackendQdrant,
			QdrantHost:  QdrantHost,
			QdrantPort:  QdrantGrpcPort,
			QdrantTLS:   QdrantUseTLS,
			Collection:  EmbeddingDBName,
			Dimension:   int(EmbeddingOutputDimensionality),
			ChromemPath: ChromemPersistPath,
		},
		Redis: RedisSettings{Addr: RedisAddr},
		Embedding: EmbeddingSettings{
			Provider: ProviderGoogle,
			Model:    GoogleEmbeddingModel,
		},
		LLM: LLMSettings{
			Provider:  ProviderGemini,
			Model:     GeminiModelName,
			MaxTokens: DefaultMaxTokens,
		},
	}
}

// Load builds the settings. path may be empty, in which case RAG_CONFIG is consulted;
// a missing file is not an error.
func Load(path string) (*Settings, error) {
	_ = godotenv.Load()

	s := Defaults()
	if path == "" {
		path = os.Getenv("RAG_CONFIG")
	}
	if path != "" {
		if err := s.mergeFile(path); err != nil {
			return nil, ragErrors.New(ragErrors.KindInvalidConfiguration, "config.Load", "", err)
		}
	}
	if err := s.applyEnv(); err != nil {
		return nil, ragErrors.New(ragErrors.KindInvalidConfiguration, "config.Load", "", err)
	}
	s.applyProviderDefaults()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (s *Settings) applyEnv() error {
	var errs []error
	setString(&s.ListenAddr, "RAG_LISTEN_ADDR")
	setString(&s.LogLevel, "LOG_LEVEL")
	errs = append(errs, setBool(&s.LogJSON, "LOG_JSON"))
	setString(&s.UploadDir, "UPLOAD_DIR")
	setString(&s.APIToken, "RAG_API_TOKEN")

	errs = append(errs,
		setInt(&s.Chunker.ChunkSize, "CHUNK_SIZE"),
		setInt(&s.Chunker.Overlap, "CHUNK_OVERLAP"),
		setInt(&s.Chunker.LookBack, "CHUNK_LOOK_BACK"),
		setBool(&s.Chunker.SnapToSentence, "CHUNK_SNAP_TO_SENTENCE"),
		setInt(&s.Ingestion.BatchSize, "EMBEDDING_BATCH_SIZE"),
		setInt(&s.Ingestion.Concurrency, "EMBEDDING_CONCURRENCY"),
		setInt(&s.Retrieval.ContextBudget, "CONTEXT_CHAR_BUDGET"),
		setInt(&s.Retrieval.DefaultLimit, "SEARCH_DEFAULT_LIMIT"),
		setInt(&s.Retrieval.MaxLimit, "SEARCH_MAX_LIMIT"),
		setFloat(&s.Retrieval.HybridAlpha, "HYBRID_ALPHA"),
		setDuration(&s.Timeouts.Embedding, "EMBEDDING_TIMEOUT"),
		setDuration(&s.Timeouts.Store, "STORE_TIMEOUT"),
		setDuration(&s.Timeouts.Generation, "GENERATION_TIMEOUT"),
		setInt(&s.VectorStore.QdrantPort, "QDRANT_PORT"),
		setBool(&s.VectorStore.QdrantTLS, "QDRANT_TLS"),
		setInt(&s.LLM.MaxTokens, "LLM_MAX_TOKENS"),
	)
	setString(&s.Retrieval.LexicalPath, "LEXICAL_INDEX_PATH")
	setString(&s.VectorStore.Backend, "VECTOR_BACKEND")
	setString(&s.VectorStore.QdrantHost, "QDRANT_HOST")
	setString(&s.VectorStore.QdrantKey, "QDRANT_API_KEY")
	setString(&s.VectorStore.Collection, "QDRANT_COLLECTION")
	setString(&s.VectorStore.ChromemPath, "CHROMEM_PATH")
	setString(&s.Redis.Addr, "REDIS_ADDR")
	setString(&s.Redis.Password, "REDIS_PASSWORD")
	setString(&s.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&s.Embedding.Model, "EMBEDDING_MODEL")
	setString(&s.LLM.Provider, "LLM_PROVIDER")
	setString(&s.LLM.Model, "LLM_MODEL")
	return errors.Join(errs...)
}

// applyProviderDefaults fills models and keys that depend on the chosen provider.
func (s *Settings) applyProviderDefaults() {
	switch s.Embedding.Provider {
	case ProviderOpenAI:
		if s.Embedding.Model == GoogleEmbeddingModel {
			s.Embedding.Model = OpenAIEmbeddingModel
		}
		setString(&s.Embedding.APIKey, "OPENAI_API_KEY")
	default:
		setString(&s.Embedding.APIKey, "GEMINI_API_KEY")
		setString(&s.Embedding.APIKey, "GOOGLE_API_KEY")
	}

	switch s.LLM.Provider {
	case ProviderAnthropic:
		if s.LLM.Model == GeminiModelName {
			s.LLM.Model = ClaudeModelName
		}
		setString(&s.LLM.APIKey, "ANTHROPIC_API_KEY")
	default:
		setString(&s.LLM.APIKey, "GEMINI_API_KEY")
		setString(&s.LLM.APIKey, "GOOGLE_API_KEY")
	}
}

func (s *Settings) Validate() error {
	var errs []error
	if s.Chunker.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", s.Chunker.ChunkSize))
	}
	if s.Chunker.Overlap < 0 || s.Chunker.Overlap >= s.Chunker.ChunkSize {
		errs = append(errs, fmt.Errorf("overlap must be in [0, chunk_size), got %d", s.Chunker.Overlap))
	}
	if s.Chunker.LookBack < 0 {
		errs = append(errs, errors.New("look_back must not be negative"))
	}
	if s.Ingestion.BatchSize <= 0 || s.Ingestion.Concurrency <= 0 {
		errs = append(errs, errors.New("ingestion batch_size and concurrency must be positive"))
	}
	if s.Retrieval.ContextBudget <= 0 {
		errs = append(errs, errors.New("context_budget must be positive"))
	}
	if s.Retrieval.DefaultLimit <= 0 || s.Retrieval.MaxLimit < s.Retrieval.DefaultLimit {
		errs = append(errs, errors.New("search limits must satisfy 0 < default_limit <= max_limit"))
	}
	if s.Retrieval.HybridAlpha < 0 || s.Retrieval.HybridAlpha > 1 {
		errs = append(errs, fmt.Errorf("hybrid_alpha must be in [0, 1], got %v", s.Retrieval.HybridAlpha))
	}
	if s.Timeouts.Embedding <= 0 || s.Timeouts.Store <= 0 || s.Timeouts.Generation <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if s.VectorStore.Backend != VectorBackendQdrant && s.VectorStore.Backend != VectorBackendChromem {
		errs = append(errs, fmt.Errorf("unknown vector backend %q", s.VectorStore.Backend))
	}
	if s.VectorStore.Dimension <= 0 {
		errs = append(errs, errors.New("vector dimension must be positive"))
	}
	if s.Embedding.Provider != ProviderGoogle && s.Embedding.Provider != ProviderOpenAI {
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", s.Embedding.Provider))
	}
	if s.LLM.Provider != ProviderGemini && s.LLM.Provider != ProviderAnthropic {
		errs = append(errs, fmt.Errorf("unknown llm provider %q", s.LLM.Provider))
	}
	if s.LLM.MaxTokens <= 0 {
		errs = append(errs, errors.New("llm max_tokens must be positive"))
	}
	if len(errs) > 0 {
		return ragErrors.New(ragErrors.KindInvalidConfiguration, "config.Validate", "", errors.Join(errs...))
	}
	return nil
}

func (s *Settings) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
