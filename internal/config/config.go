package config

import (
	"os"
	"time"
)

type Config struct {
	ListenAddr     string
	DataDir        string
	RemoteEndpoint string
	MergePolicy    string
	SyncInterval   time.Duration
	PushDebounce   time.Duration
	RequestTimeout time.Duration
	OpenAIKey      string
	OpenAIModel    string
	LogPretty      bool
}

func Load() Config {
	initEnvFile()

	cfg := Config{
		ListenAddr:     envOr("SYNAPSE_LISTEN_ADDR", "127.0.0.1:8086"),
		DataDir:        envOr("SYNAPSE_DATA_DIR", "."),
		RemoteEndpoint: os.Getenv("SYNAPSE_REMOTE_ENDPOINT"),
		MergePolicy:    envOr("SYNAPSE_MERGE_POLICY", "additive"),
		OpenAIKey:      os.Getenv("SYNAPSE_OPENAI_KEY"),
		OpenAIModel:    os.Getenv("SYNAPSE_OPENAI_MODEL"),
		LogPretty:      os.Getenv("SYNAPSE_LOG_PRETTY") == "1",
	}

	cfg.SyncInterval = parseDurationOr("SYNAPSE_SYNC_INTERVAL", time.Minute)
	cfg.PushDebounce = parseDurationOr("SYNAPSE_PUSH_DEBOUNCE", 1500*time.Millisecond)
	cfg.RequestTimeout = parseDurationOr("SYNAPSE_REQUEST_TIMEOUT", 15*time.Second)
	return cfg
}

// RelayConfig configures the relay daemon.
type RelayConfig struct {
	ListenAddr string
	NotesDir   string
	IndexPath  string
	Debounce   time.Duration
	LogPretty  bool
}

func LoadRelay() RelayConfig {
	initEnvFile()

	cfg := RelayConfig{
		ListenAddr: envOr("RELAY_LISTEN_ADDR", "127.0.0.1:8087"),
		NotesDir:   envOr("RELAY_NOTES_DIR", "."),
		IndexPath:  envOr("RELAY_INDEX_PATH", ".relay-index.db"),
		LogPretty:  os.Getenv("RELAY_LOG_PRETTY") == "1",
	}
	cfg.Debounce = parseDurationOr("RELAY_WATCH_DEBOUNCE", 2*time.Second)
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
