package client

import (
	"errors"
	"fmt"

	"github.com/mcdev12/housecup/go/internal/leaderboard/events"
	"github.com/mcdev12/housecup/go/internal/models"
	"github.com/rs/zerolog/log"
)

// AggregateStateStore reconciles totals snapshots and scoring events.
//
// Snapshots are authoritative: the latest one received for a window replaces
// the previous one wholesale. Events never change totals; they only feed the
// recent log and the transient notification.
type AggregateStateStore struct {
	categories []models.Category
	known      map[models.Category]bool
	windows    map[models.TimeWindow]bool
	metrics    MetricsCollector

	window    models.TimeWindow
	snapshots map[models.TimeWindow]models.TotalsSnapshot
	recent    *eventLog

	latest              *models.ScoringEvent
	latestSeq           uint64
	notificationVisible bool
}

// ApplyResult describes what a single inbound message changed
type ApplyResult struct {
	// Windows whose cached snapshot was replaced
	Windows []models.TimeWindow
	// TotalsChanged is set when the selected window's snapshot was replaced
	TotalsChanged bool
	// Event is the scoring event accepted from the message, if any
	Event *models.ScoringEvent
	// EventSeq identifies Event for notification expiry
	EventSeq uint64
	// Status is an acknowledgement from the source, if any
	Status string
}

// NewAggregateStateStore creates an empty store viewing the given window
func NewAggregateStateStore(categories []models.Category, windows []models.TimeWindow, initial models.TimeWindow, logCapacity int, metrics MetricsCollector) *AggregateStateStore {
	if metrics == nil {
		metrics = &NoOpMetricsCollector{}
	}
	s := &AggregateStateStore{
		categories: append([]models.Category(nil), categories...),
		known:      make(map[models.Category]bool, len(categories)),
		windows:    make(map[models.TimeWindow]bool, len(windows)),
		metrics:    metrics,
		window:     initial,
		snapshots:  make(map[models.TimeWindow]models.TotalsSnapshot),
		recent:     newEventLog(logCapacity),
	}
	for _, c := range categories {
		s.known[c] = true
	}
	for _, w := range windows {
		s.windows[w] = true
	}
	return s
}

// HandleRaw decodes and applies one inbound frame. Each field is applied on
// its own; a malformed field is reported but does not stop the others. A frame
// that is not a JSON object changes nothing.
func (s *AggregateStateStore) HandleRaw(data []byte) (ApplyResult, error) {
	msg, err := events.ParseMessage(data)
	if err != nil {
		s.metrics.RecordDropped(dropMalformed)
		return ApplyResult{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return s.Apply(msg)
}

// Apply applies a decoded envelope
func (s *AggregateStateStore) Apply(msg *events.Message) (ApplyResult, error) {
	var result ApplyResult
	var errs []error

	if events.Present(msg.Totals) {
		s.metrics.RecordInbound("totals")
		if err := s.applyTotals(msg, &result); err != nil {
			errs = append(errs, err)
		}
	}

	if events.Present(msg.Event) {
		s.metrics.RecordInbound("event")
		if err := s.applyEvent(msg, &result); err != nil {
			errs = append(errs, err)
		}
	}

	if events.Present(msg.Status) {
		s.metrics.RecordInbound("status")
		status, err := events.ParseStatus(msg.Status)
		if err != nil {
			errs = append(errs, err)
		} else {
			result.Status = status
			log.Debug().Str("status", status).Msg("points source acknowledged")
		}
	}

	if len(errs) > 0 {
		s.metrics.RecordDropped(dropMalformed)
		return result, fmt.Errorf("%w: %w", ErrMalformedMessage, errors.Join(errs...))
	}
	return result, nil
}

func (s *AggregateStateStore) applyTotals(msg *events.Message, result *ApplyResult) error {
	totals, err := events.ParseTotals(msg.Totals)
	if err != nil {
		return err
	}

	var errs []error
	for window, raw := range totals {
		if !s.windows[window] {
			s.metrics.RecordDropped(dropUnknownWindow)
			log.Warn().Str("window", string(window)).Msg("ignoring totals for unknown time window")
			continue
		}

		snapshot, err := events.ParseSnapshot(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("window %q: %w", window, err))
			continue
		}

		s.snapshots[window] = s.filterSnapshot(window, snapshot)
		result.Windows = append(result.Windows, window)
		if window == s.window {
			result.TotalsChanged = true
		}
	}

	if result.TotalsChanged {
		log.Debug().
			Str("window", string(s.window)).
			Interface("totals", s.snapshots[s.window]).
			Msg("totals updated")
	}
	return errors.Join(errs...)
}

// filterSnapshot keeps only known categories
func (s *AggregateStateStore) filterSnapshot(window models.TimeWindow, snapshot map[models.Category]int) models.TotalsSnapshot {
	out := make(models.TotalsSnapshot, len(s.categories))
	for category, points := range snapshot {
		if !s.known[category] {
			s.metrics.RecordDropped(dropUnknownCategory)
			log.Debug().
				Str("window", string(window)).
				Str("category", string(category)).
				Msg("ignoring unknown category in snapshot")
			continue
		}
		out[category] = points
	}
	return out
}

func (s *AggregateStateStore) applyEvent(msg *events.Message, result *ApplyResult) error {
	event, err := events.ParseEvent(msg.Event)
	if err != nil {
		return err
	}
	if !s.known[event.Category] {
		s.metrics.RecordDropped(dropUnknownCategory)
		return fmt.Errorf("event for unknown category %q", event.Category)
	}

	s.recent.Append(event)
	s.latestSeq++
	s.latest = &event
	s.notificationVisible = true
	s.metrics.RecordEventLogSize(s.recent.Len())

	result.Event = &event
	result.EventSeq = s.latestSeq

	log.Debug().
		Str("event_id", event.ID).
		Str("category", string(event.Category)).
		Int("points", event.Points).
		Time("timestamp", event.Timestamp).
		Msg("scoring event received")
	return nil
}

// SelectWindow switches the totals view to w, showing the last snapshot
// cached for it until a fresh one arrives
func (s *AggregateStateStore) SelectWindow(w models.TimeWindow) {
	s.window = w
	if _, ok := s.snapshots[w]; !ok {
		log.Debug().Str("window", string(w)).Msg("no cached snapshot for window")
	}
}

// Window returns the window the totals view follows
func (s *AggregateStateStore) Window() models.TimeWindow {
	return s.window
}

// Totals returns the complete snapshot for the viewed window
func (s *AggregateStateStore) Totals() models.TotalsSnapshot {
	return s.snapshots[s.window].Complete(s.categories)
}

// CachedTotals returns the complete cached snapshot for any window
func (s *AggregateStateStore) CachedTotals(w models.TimeWindow) (models.TotalsSnapshot, bool) {
	snapshot, ok := s.snapshots[w]
	if !ok {
		return nil, false
	}
	return snapshot.Complete(s.categories), true
}

// RecentEvents returns the event log, oldest first
func (s *AggregateStateStore) RecentEvents() []models.ScoringEvent {
	return s.recent.Events()
}

// LatestEvent returns a copy of the most recent event, or nil
func (s *AggregateStateStore) LatestEvent() *models.ScoringEvent {
	if s.latest == nil {
		return nil
	}
	event := *s.latest
	return &event
}

// NotificationVisible reports whether the latest event notification is showing
func (s *AggregateStateStore) NotificationVisible() bool {
	return s.notificationVisible
}

// ExpireNotification hides the notification if seq still identifies the
// latest event. Expiry for an older event is ignored.
func (s *AggregateStateStore) ExpireNotification(seq uint64) bool {
	if seq != s.latestSeq || !s.notificationVisible {
		return false
	}
	s.notificationVisible = false
	return true
}

// HideNotification hides the notification regardless of which event it shows
func (s *AggregateStateStore) HideNotification() {
	s.notificationVisible = false
}
