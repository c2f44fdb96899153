package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// KnownKeys defines the environment variable keys nudge recognizes.
var KnownKeys = []string{
	"NUDGE_ADDR",
	"NUDGE_API_KEY",
	"NUDGE_DEPLOYMENT_ID",
	"NUDGE_API_VERSION",
	"NUDGE_AZURE_ENDPOINT",
	"NUDGE_CHUNKS_DIR",
	"NUDGE_INDEX_DIR",
	"NUDGE_INDEX_BACKEND",
	"NUDGE_EMBEDDER",
	"NUDGE_EMBED_BASE_URL",
	"NUDGE_EMBED_API_KEY",
	"NUDGE_EMBED_MODEL",
	"NUDGE_TOKENIZER",
	"NUDGE_MAX_TOKENS",
	"NUDGE_OVERLAP",
	"NUDGE_LOG_LEVEL",
	"NUDGE_API_TOKEN",
	"NUDGE_RATE_LIMIT_RPS",
}

// LoadAndApply loads ~/.nudge/config.yaml (or .yml) and applies values
// into the process environment for known keys that are not already
// set. Environment variables always win over file values.
func LoadAndApply() error {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return nil // non-fatal
	}
	base := filepath.Join(home, ".nudge")
	var data map[string]any
	for _, p := range []string{filepath.Join(base, "config.yaml"), filepath.Join(base, "config.yml")} {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var m map[string]any
		if err := yaml.Unmarshal(b, &m); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		data = m
		break
	}
	apply(data)
	return nil
}

func apply(data map[string]any) {
	if len(data) == 0 {
		return
	}
	for _, key := range KnownKeys {
		if os.Getenv(key) != "" {
			continue
		}
		if v, ok := lookupInsensitive(data, key); ok {
			os.Setenv(key, toString(v))
		}
	}
}

func lookupInsensitive(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Addr is the HTTP listen address.
func Addr() string { return getenv("NUDGE_ADDR", ":8090") }

// ChunksDir holds one JSONL chunk file per ingested source document.
func ChunksDir() string { return getenv("NUDGE_CHUNKS_DIR", "data/chunks") }

// IndexDir holds the persisted vector index artifact.
func IndexDir() string { return getenv("NUDGE_INDEX_DIR", "data/index") }

// IndexBackend selects the index persistence backend: "gob" or "sqlite".
func IndexBackend() string { return getenv("NUDGE_INDEX_BACKEND", "gob") }

// EmbedderKind selects the embedding implementation: "openai" or "simple".
func EmbedderKind() string { return getenv("NUDGE_EMBEDDER", "openai") }

// TokenizerKind selects the tokenizer: "word" or "tiktoken".
func TokenizerKind() string { return getenv("NUDGE_TOKENIZER", "word") }

// MaxTokens is the chunk window size in tokens.
func MaxTokens() int { return getenvInt("NUDGE_MAX_TOKENS", 512) }

// Overlap is the number of tokens shared by consecutive chunks.
func Overlap() int { return getenvInt("NUDGE_OVERLAP", 50) }
