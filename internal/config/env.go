package config

import (
	"os"
	"strconv"
)

// FromEnv overlays HEXBOLT_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("HEXBOLT_ALLOW_AUTO_CREATE_QUEUES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AllowAutoCreateQueues = b
		}
	}
	if v := os.Getenv("HEXBOLT_DEFAULT_QUEUE_NAME"); v != "" {
		cfg.DefaultQueueName = v
	}
	if v := os.Getenv("HEXBOLT_QUEUE_NAME_REGEX"); v != "" {
		cfg.QueueNameRegex = v
	}
	if v := os.Getenv("HEXBOLT_MAX_QUEUES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxQueues = n
		}
	}
	if v := os.Getenv("HEXBOLT_QUEUE_DEFAULTS_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueDefaults.Capacity = n
		}
	}
	if v := os.Getenv("HEXBOLT_QUEUE_DEFAULTS_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueDefaults.MaxRetries = n
		}
	}
	if v := os.Getenv("HEXBOLT_QUEUE_DEFAULTS_RETRY_BACKOFF_BASE_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.QueueDefaults.RetryBackoffBaseMs = n
		}
	}
	if v := os.Getenv("HEXBOLT_QUEUE_DEFAULTS_RETRY_BACKOFF_MAX_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.QueueDefaults.RetryBackoffMaxMs = n
		}
	}
	if v := os.Getenv("HEXBOLT_QUEUE_DEFAULTS_RETRY_JITTER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.QueueDefaults.RetryJitter = b
		}
	}
	if v := os.Getenv("HEXBOLT_QUEUE_DEFAULTS_BATCH_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueDefaults.BatchMax = n
		}
	}
	if v := os.Getenv("HEXBOLT_QUEUE_DEFAULTS_PAYLOAD_MAX_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueDefaults.PayloadMaxBytes = n
		}
	}
}
