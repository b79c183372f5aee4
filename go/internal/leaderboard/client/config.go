package client

import (
	"fmt"
	"time"

	"github.com/mcdev12/housecup/go/internal/models"
)

// Config holds configuration for a leaderboard session
type Config struct {
	Connection            ConnectionConfig    `yaml:"connection"`
	Categories            []models.Category   `yaml:"categories"`
	Windows               []models.TimeWindow `yaml:"windows"`
	DefaultWindow         models.TimeWindow   `yaml:"default_window"`
	EventLogCapacity      int                 `yaml:"event_log_capacity"`
	NotificationTTL       time.Duration       `yaml:"notification_ttl"`
	RefreshOnWindowChange bool                `yaml:"refresh_on_window_change"`
	SignalBufferSize      int                 `yaml:"signal_buffer_size"`
}

// ConnectionConfig holds configuration for the points source websocket
type ConnectionConfig struct {
	URL              string        `yaml:"url"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	MaxMessageSize   int64         `yaml:"max_message_size"`
	ReadBufferSize   int           `yaml:"read_buffer_size"`
	WriteBufferSize  int           `yaml:"write_buffer_size"`
}

// DefaultConnectionConfig returns default websocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		URL:              "ws://localhost:8000/ws",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		MaxMessageSize:   64 * 1024,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
}

// DefaultConfig returns the house cup defaults
func DefaultConfig() Config {
	return Config{
		Connection:       DefaultConnectionConfig(),
		Categories:       models.DefaultCategories(),
		Windows:          models.DefaultTimeWindows(),
		DefaultWindow:    models.TimeWindowCumulative,
		EventLogCapacity: 20,
		NotificationTTL:  5 * time.Second,
		SignalBufferSize: 256,
	}
}

// Validate checks the category and window sets and the numeric limits
func (c Config) Validate() error {
	if c.Connection.URL == "" {
		return fmt.Errorf("connection url is required")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	seenCategories := make(map[models.Category]bool, len(c.Categories))
	for _, category := range c.Categories {
		if category == "" {
			return fmt.Errorf("empty category")
		}
		if seenCategories[category] {
			return fmt.Errorf("duplicate category %q", category)
		}
		seenCategories[category] = true
	}

	if len(c.Windows) == 0 {
		return fmt.Errorf("at least one time window is required")
	}
	seenWindows := make(map[models.TimeWindow]bool, len(c.Windows))
	for _, window := range c.Windows {
		if window == "" {
			return fmt.Errorf("empty time window")
		}
		if seenWindows[window] {
			return fmt.Errorf("duplicate time window %q", window)
		}
		seenWindows[window] = true
	}
	if !seenWindows[c.DefaultWindow] {
		return fmt.Errorf("%w: default %q", ErrInvalidWindow, c.DefaultWindow)
	}

	if c.EventLogCapacity < 1 {
		return fmt.Errorf("event log capacity must be at least 1, got %d", c.EventLogCapacity)
	}
	if c.NotificationTTL <= 0 {
		return fmt.Errorf("notification ttl must be positive, got %s", c.NotificationTTL)
	}
	if c.SignalBufferSize < 1 {
		return fmt.Errorf("signal buffer size must be at least 1, got %d", c.SignalBufferSize)
	}
	return nil
}
