package models

import (
	"time"
)

// ConnectionState defines the lifecycle state of the points source connection.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
)

// StreamState defines whether live event streaming is active.
type StreamState string

const (
	StreamStateStopped StreamState = "stopped"
	StreamStateStarted StreamState = "started"
)

// AggregateState is the complete view of one leaderboard session.
// Values are published whole and must be treated as read-only.
type AggregateState struct {
	Window              TimeWindow      `json:"window"`
	Totals              TotalsSnapshot  `json:"totals"`
	LatestEvent         *ScoringEvent   `json:"latest_event,omitempty"`
	NotificationVisible bool            `json:"notification_visible"`
	RecentEvents        []ScoringEvent  `json:"recent_events"`
	Connection          ConnectionState `json:"connection"`
	Stream              StreamState     `json:"stream"`
	SelectedCategory    *Category       `json:"selected_category,omitempty"`
	Version             uint64          `json:"version"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// IsLive reports whether events are being streamed over a live connection.
func (s AggregateState) IsLive() bool {
	return s.Connection == ConnectionStateConnected && s.Stream == StreamStateStarted
}
