// Package config loads the core's environment configuration. It follows the
// corpus's plain os.Getenv idiom rather than a config-parsing library — the
// teacher repo has no config package at all, every provider and client
// config is built by hand with validated struct literals, so this is the
// same posture applied to process-level settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	EmbeddingModel     string
	EmbeddingBatchSize int

	VectorDBURL       string
	VectorCollection  string

	SessionTTLMinutes int

	EnableLLMFallback bool

	HybridAlpha float64

	RerankWeights RerankWeights

	DefaultDifficulty string

	MaxQuestionsPerSession int

	OpenAIAPIKey string
}

type RerankWeights struct {
	Score     float64
	Authority float64
	Recency   float64
	TypePref  float64
}

func defaultRerankWeights() RerankWeights {
	return RerankWeights{Score: 0.6, Authority: 0.15, Recency: 0.1, TypePref: 0.15}
}

// Load reads configuration from the environment, applying the defaults
// enumerated in spec.md §6. It never fails on a missing optional value; it
// returns an error only for a malformed present value (a Fatal condition
// per spec.md §7, surfaced at startup by the caller).
func Load() (*Config, error) {
	c := &Config{
		EmbeddingModel:         getString("EMBEDDING_MODEL", "text-embedding-004"),
		VectorDBURL:            getString("VECTOR_DB_URL", ""),
		VectorCollection:       getString("VECTOR_COLLECTION", ""),
		DefaultDifficulty:      getString("DEFAULT_DIFFICULTY", "intermediate"),
		OpenAIAPIKey:           getString("OPENAI_API_KEY", ""),
		RerankWeights:          defaultRerankWeights(),
	}

	var err error
	if c.EmbeddingBatchSize, err = getInt("EMBEDDING_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if c.SessionTTLMinutes, err = getInt("SESSION_TTL_MINUTES", 60); err != nil {
		return nil, err
	}
	if c.MaxQuestionsPerSession, err = getInt("MAX_QUESTIONS_PER_SESSION", 20); err != nil {
		return nil, err
	}
	if c.EnableLLMFallback, err = getBool("ENABLE_LLM_FALLBACK", false); err != nil {
		return nil, err
	}
	if c.HybridAlpha, err = getFloat("HYBRID_ALPHA", 0.7); err != nil {
		return nil, err
	}
	if weights, ok := os.LookupEnv("RERANK_WEIGHTS"); ok {
		if c.RerankWeights, err = parseRerankWeights(weights); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// MustLoad loads configuration and panics on a malformed value. Intended for
// process startup (cmd/server), where a bad config is a Fatal error anyway.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func parseRerankWeights(raw string) (RerankWeights, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return RerankWeights{}, fmt.Errorf("config: RERANK_WEIGHTS requires 4 comma-separated floats, got %d", len(parts))
	}

	values := make([]float64, 4)
	var sum float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return RerankWeights{}, fmt.Errorf("config: RERANK_WEIGHTS entry %q: %w", p, err)
		}
		values[i] = v
		sum += v
	}
	if sum > 1.0001 {
		return RerankWeights{}, fmt.Errorf("config: RERANK_WEIGHTS must sum to <= 1, got %f", sum)
	}

	return RerankWeights{Score: values[0], Authority: values[1], Recency: values[2], TypePref: values[3]}, nil
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a float: %w", key, err)
	}
	return f, nil
}

func getBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s must be a bool: %w", key, err)
	}
	return b, nil
}
