package config

import "os"

const (
	DefaultListenAddr       = "0.0.0.0:8080"
	DefaultNeo4jURI         = "neo4j://localhost:7687"
	DefaultNeo4jUser        = "neo4j"
	DefaultNeo4jPassword    = "password"
	DefaultReminderSchedule = "@every 1h"
)

// Config holds the runtime settings, loaded from the environment.
type Config struct {
	ListenAddr       string
	Neo4jURI         string
	Neo4jUser        string
	Neo4jPassword    string
	ReminderSchedule string
}

// Load reads the configuration from TASKHUB_* environment variables,
// falling back to the defaults above.
func Load() *Config {
	return &Config{
		ListenAddr:       envOr("TASKHUB_LISTEN_ADDR", DefaultListenAddr),
		Neo4jURI:         envOr("TASKHUB_NEO4J_URI", DefaultNeo4jURI),
		Neo4jUser:        envOr("TASKHUB_NEO4J_USER", DefaultNeo4jUser),
		Neo4jPassword:    envOr("TASKHUB_NEO4J_PASSWORD", DefaultNeo4jPassword),
		ReminderSchedule: envOr("TASKHUB_REMINDER_SCHEDULE", DefaultReminderSchedule),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
