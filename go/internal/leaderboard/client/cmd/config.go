package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/housecup/go/internal/leaderboard/client"
	"gopkg.in/yaml.v3"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// loadConfig reads a YAML file over the defaults. Fields the file leaves out
// keep their default values.
func loadConfig(path string) (client.Config, error) {
	config := client.DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// applyEnv lets the environment override the settings most often changed per deployment
func applyEnv(config *client.Config) {
	config.Connection.URL = getEnv("POINTS_SOURCE_URL", config.Connection.URL)
	config.Connection.HandshakeTimeout = getEnvAsDuration("HANDSHAKE_TIMEOUT", config.Connection.HandshakeTimeout)
	config.Connection.PingInterval = getEnvAsDuration("PING_INTERVAL", config.Connection.PingInterval)
	config.EventLogCapacity = getEnvAsInt("EVENT_LOG_CAPACITY", config.EventLogCapacity)
	config.NotificationTTL = getEnvAsDuration("NOTIFICATION_TTL", config.NotificationTTL)
	config.RefreshOnWindowChange = getEnvAsBool("REFRESH_ON_WINDOW_CHANGE", config.RefreshOnWindowChange)
}
