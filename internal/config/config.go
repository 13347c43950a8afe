package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	AllowAutoCreateQueues bool          `json:"allowAutoCreateQueues" yaml:"allowAutoCreateQueues"`
	DefaultQueueName      string        `json:"defaultQueueName" yaml:"defaultQueueName"`
	QueueNameRegex        string        `json:"queueNameRegex" yaml:"queueNameRegex"`
	QueueDefaults         QueueDefaults `json:"queueDefaults" yaml:"queueDefaults"`
	MaxQueues             int           `json:"maxQueues" yaml:"maxQueues"`
}

// QueueDefaults captures per-queue baseline limits and retry behavior.
type QueueDefaults struct {
	// Capacity bounds the number of live messages; 0 means unbounded.
	Capacity int `json:"capacity" yaml:"capacity"`
	// MaxRetries is the retry budget applied when a message does not set one.
	MaxRetries int `json:"maxRetries" yaml:"maxRetries"`
	// RetryBackoffBaseMs is the first retry delay in milliseconds.
	RetryBackoffBaseMs int64 `json:"retryBackoffBaseMs" yaml:"retryBackoffBaseMs"`
	// RetryBackoffMaxMs caps the exponential retry delay.
	RetryBackoffMaxMs int64 `json:"retryBackoffMaxMs" yaml:"retryBackoffMaxMs"`
	// RetryJitter adds up to +/-15% randomization to retry delays.
	RetryJitter bool `json:"retryJitter" yaml:"retryJitter"`
	// BatchMax bounds a single pop_batch request.
	BatchMax int `json:"batchMax" yaml:"batchMax"`
	// PayloadMaxBytes bounds a single message payload.
	PayloadMaxBytes int `json:"payloadMaxBytes" yaml:"payloadMaxBytes"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		AllowAutoCreateQueues: true,
		DefaultQueueName:      "default",
		QueueNameRegex:        "[a-z0-9-_]{1,64}",
		QueueDefaults: QueueDefaults{
			Capacity:           0,
			MaxRetries:         5,
			RetryBackoffBaseMs: 1000,
			RetryBackoffMaxMs:  5 * 60 * 1000,
			BatchMax:           256,
			PayloadMaxBytes:    1 << 20,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
