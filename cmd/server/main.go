// Command server wires C1-C13 together and serves the HTTP surface
// described in spec.md §6. The HTTP layer itself is a thin collaborator:
// routing and status-code mapping only, with every behavior delegated to
// the core packages.
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/openai/openai-go/v3/option"
	qdrantclient "github.com/qdrant/go-client/qdrant"

	"financebuddy/core/apperr"
	"financebuddy/core/config"
	"financebuddy/core/document/id"
	"financebuddy/core/embedding"
	"financebuddy/core/explanation"
	"financebuddy/core/flowmgr"
	"financebuddy/core/ingestion"
	"financebuddy/core/llm"
	"financebuddy/core/question"
	"financebuddy/core/retrieval"
	"financebuddy/core/session"
	"financebuddy/core/vectorstore"
	qdrantstore "financebuddy/core/vectorstore/qdrant"
)

func main() {
	cfg := config.MustLoad()

	manager, err := build(cfg)
	if err != nil {
		log.Fatalf("server: startup failed: %v", err)
	}

	srv := &http.Server{
		Addr:    listenAddr(),
		Handler: newRouter(manager, cfg),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("server: listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: listen failed: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func listenAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

// build wires every core component from cfg. A missing OpenAI key is Fatal
// unless ENABLE_LLM_FALLBACK is set, in which case the server runs with a
// fallback-only adapter (spec.md §7's Fatal kind: "configuration missing,
// surfaced on startup").
func build(cfg *config.Config) (*flowmgr.Manager, error) {
	ctx := context.Background()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildVectorStore(ctx, cfg, embedder)
	if err != nil {
		return nil, err
	}

	lexical := retrieval.NewInMemoryLexicalIndex()
	retriever, err := retrieval.NewRetriever(&retrieval.Config{Store: store, Lexical: lexical})
	if err != nil {
		return nil, err
	}

	processor, err := ingestion.NewDocumentProcessor(&ingestion.ProcessorConfig{
		Embedder:       embedder,
		Store:          store,
		IDs:            id.NewSha256Generator(nil),
		EmbedBatchSize: cfg.EmbeddingBatchSize,
	})
	if err != nil {
		return nil, err
	}
	pipeline, err := ingestion.NewPipeline(ingestion.PipelineConfig{
		Processor:    processor,
		SkipExisting: true,
	})
	if err != nil {
		return nil, err
	}
	if corpusDir := os.Getenv("CORPUS_DIR"); corpusDir != "" {
		report, err := pipeline.Run(ctx, corpusDir)
		if err != nil {
			log.Printf("server: initial ingestion failed: %v", err)
		} else {
			log.Printf("server: ingested %d chunks from %s", report.Successes, corpusDir)
			retriever.IndexForLexical(report.Persisted)
		}
	}

	adapter, err := buildAdapter(cfg)
	if err != nil {
		return nil, err
	}

	questionGen, err := question.NewGenerator(&question.Config{
		Retriever:                   retriever,
		Adapter:                     adapter,
		AllowFallbackWithoutContext: cfg.EnableLLMFallback,
	})
	if err != nil {
		return nil, err
	}

	explanationGen, err := explanation.NewGenerator(&explanation.Config{
		Retriever: retriever,
		Adapter:   adapter,
	})
	if err != nil {
		return nil, err
	}

	sessionStore := session.NewInMemoryStoreWithTTL(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	go expireSessionsPeriodically(sessionStore)

	return flowmgr.NewManager(&flowmgr.Config{
		Store:                sessionStore,
		Retriever:            retriever,
		QuestionGenerator:    questionGen,
		ExplanationGenerator: explanationGen,
		Adapter:              adapter,
	})
}

func buildEmbedder(cfg *config.Config) (embedding.Provider, error) {
	if cfg.OpenAIAPIKey == "" {
		if !cfg.EnableLLMFallback {
			return nil, errors.New("server: OPENAI_API_KEY is required unless ENABLE_LLM_FALLBACK is set")
		}
		log.Printf("server: no OPENAI_API_KEY, using stub embedding provider")
		return embedding.NewStubProvider(8), nil
	}
	return embedding.NewOpenAIProvider(&embedding.OpenAIConfig{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: embeddingDimensions(cfg.EmbeddingModel),
	})
}

// embeddingDimensions maps known OpenAI embedding model names to their
// reported vector length, since embedding.OpenAIConfig has no way to ask
// the provider at runtime. Falls back to text-embedding-3-small's size for
// an unrecognized model name (e.g. spec.md §6's default, text-embedding-004,
// which isn't an OpenAI model; the server is still OpenAI-backed here).
func embeddingDimensions(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-ada-002":
		return 1536
	default:
		return 1536
	}
}

func buildVectorStore(ctx context.Context, cfg *config.Config, embedder embedding.Provider) (vectorstore.VectorStore, error) {
	if cfg.VectorDBURL == "" {
		log.Printf("server: no VECTOR_DB_URL, using in-memory vector store")
		return vectorstore.NewInMemoryStore(cfg.VectorCollection, embedder), nil
	}

	host, portStr, err := net.SplitHostPort(cfg.VectorDBURL)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrantclient.NewClient(&qdrantclient.Config{Host: host, Port: port})
	if err != nil {
		return nil, err
	}

	store, err := qdrantstore.NewStore(&qdrantstore.Config{
		Client:           client,
		CollectionName:   cfg.VectorCollection,
		InitializeSchema: true,
		Embedder:         embedder,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func buildAdapter(cfg *config.Config) (llm.Adapter, error) {
	if cfg.OpenAIAPIKey == "" {
		if !cfg.EnableLLMFallback {
			return nil, errors.New("server: OPENAI_API_KEY is required unless ENABLE_LLM_FALLBACK is set")
		}
		log.Printf("server: no OPENAI_API_KEY, LLM-dependent features will use fallbacks only")
		return llm.NewUnavailableAdapter(), nil
	}
	return llm.NewOpenAIAdapter(&llm.OpenAIConfig{
		APIKey:         cfg.OpenAIAPIKey,
		Model:          "gpt-4o-mini",
		RequestOptions: []option.RequestOption{},
	})
}

func expireSessionsPeriodically(store *session.InMemoryStore) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		if n, err := store.CleanupExpired(context.Background()); err == nil && n > 0 {
			log.Printf("server: expired %d sessions", n)
		}
	}
}

// statusForKind maps apperr's closed kind set to HTTP status codes
// (spec.md §7/§6).
func statusForKind(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidTransition:
		return http.StatusConflict
	case apperr.KindGeneration:
		return http.StatusUnprocessableEntity
	case apperr.KindRetrievalDegraded, apperr.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
