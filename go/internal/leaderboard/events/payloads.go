package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/housecup/go/internal/models"
)

// Payload types exchanged with the points source over the websocket

// Action names a request sent to the points source
type Action string

const (
	ActionGetPoints Action = "get_points"
	ActionStart     Action = "start"
	ActionStop      Action = "stop"
)

// Command is an outbound message
type Command struct {
	Action     Action            `json:"action"`
	TimeWindow models.TimeWindow `json:"time_window,omitempty"`
}

// GetPoints requests an immediate totals snapshot for a window
func GetPoints(window models.TimeWindow) Command {
	return Command{Action: ActionGetPoints, TimeWindow: window}
}

// Start begins event streaming
func Start() Command {
	return Command{Action: ActionStart}
}

// Stop ends event streaming
func Stop() Command {
	return Command{Action: ActionStop}
}

// IsControl reports whether the command changes the streaming subscription.
// Snapshot requests are not control messages.
func (c Command) IsControl() bool {
	return c.Action == ActionStart || c.Action == ActionStop
}

// Message is the envelope of a frame received from the points source.
// Each field is kept raw so one malformed field cannot spoil the others.
type Message struct {
	Totals json.RawMessage `json:"totals,omitempty"`
	Event  json.RawMessage `json:"event,omitempty"`
	Status json.RawMessage `json:"status,omitempty"`
}

// EventPayload is the wire form of a scoring event
type EventPayload struct {
	ID        string     `json:"id"`
	Category  string     `json:"category"`
	Points    *int       `json:"points"`
	Timestamp *time.Time `json:"timestamp"`
}

// ParseMessage decodes the envelope of an inbound frame
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message envelope: %w", err)
	}
	return &msg, nil
}

// Present reports whether a raw field carries a value (absent and null do not)
func Present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// ParseTotals splits a totals field into its per-window snapshots, still raw
func ParseTotals(raw json.RawMessage) (map[models.TimeWindow]json.RawMessage, error) {
	var totals map[models.TimeWindow]json.RawMessage
	if err := json.Unmarshal(raw, &totals); err != nil {
		return nil, fmt.Errorf("unmarshal totals: %w", err)
	}
	return totals, nil
}

// ParseSnapshot decodes the category totals of a single window
func ParseSnapshot(raw json.RawMessage) (map[models.Category]int, error) {
	var snapshot map[models.Category]int
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	for category, points := range snapshot {
		if points < 0 {
			return nil, fmt.Errorf("negative total %d for category %q", points, category)
		}
	}
	return snapshot, nil
}

// ParseEvent decodes and checks the required fields of a scoring event
func ParseEvent(raw json.RawMessage) (models.ScoringEvent, error) {
	var payload EventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.ScoringEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if payload.Category == "" {
		return models.ScoringEvent{}, fmt.Errorf("event missing category")
	}
	if payload.Points == nil {
		return models.ScoringEvent{}, fmt.Errorf("event missing points")
	}

	event := models.ScoringEvent{
		ID:       payload.ID,
		Category: models.Category(payload.Category),
		Points:   *payload.Points,
	}
	if payload.Timestamp != nil {
		event.Timestamp = *payload.Timestamp
	}
	return event, nil
}

// ParseStatus decodes an acknowledgement such as "started" or "stopped"
func ParseStatus(raw json.RawMessage) (string, error) {
	var status string
	if err := json.Unmarshal(raw, &status); err != nil {
		return "", fmt.Errorf("unmarshal status: %w", err)
	}
	return status, nil
}
