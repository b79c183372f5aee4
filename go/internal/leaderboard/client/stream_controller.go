package client

import (
	"errors"
	"fmt"

	"github.com/mcdev12/housecup/go/internal/leaderboard/events"
	"github.com/mcdev12/housecup/go/internal/models"
	"github.com/rs/zerolog/log"
)

// LiveStreamController owns the streaming subscription with the points source.
// It guarantees at most one active subscription: start and stop are
// idempotent, and a window change while started is a single stop-then-start
// transition.
type LiveStreamController struct {
	sender  Sender
	window  func() models.TimeWindow
	metrics MetricsCollector
	state   models.StreamState
}

// NewLiveStreamController creates a stopped controller. window reports the
// currently selected time window.
func NewLiveStreamController(sender Sender, window func() models.TimeWindow, metrics MetricsCollector) *LiveStreamController {
	if metrics == nil {
		metrics = &NoOpMetricsCollector{}
	}
	c := &LiveStreamController{
		sender:  sender,
		window:  window,
		metrics: metrics,
		state:   models.StreamStateStopped,
	}
	metrics.RecordStreamState(c.state)
	return c
}

// State returns the current stream state
func (c *LiveStreamController) State() models.StreamState {
	return c.state
}

// Start begins streaming for the selected window. No-op if already started.
func (c *LiveStreamController) Start() error {
	if c.state == models.StreamStateStarted {
		log.Debug().Msg("start ignored, stream already started")
		return nil
	}
	if err := c.sender.Send(events.Start()); err != nil {
		log.Warn().Err(err).Msg("failed to start live stream")
		return fmt.Errorf("start stream: %w", err)
	}
	c.setState(models.StreamStateStarted)
	log.Info().Str("window", string(c.window())).Msg("live stream started")
	return nil
}

// Stop ends streaming. No-op if already stopped. The stream counts as stopped
// even when the stop message cannot be delivered.
func (c *LiveStreamController) Stop() error {
	if c.state == models.StreamStateStopped {
		log.Debug().Msg("stop ignored, stream already stopped")
		return nil
	}
	c.setState(models.StreamStateStopped)
	if err := c.sender.Send(events.Stop()); err != nil {
		log.Warn().Err(err).Msg("stop message not delivered")
		return fmt.Errorf("stop stream: %w", err)
	}
	log.Info().Msg("live stream stopped")
	return nil
}

// Toggle starts a stopped stream or stops a started one
func (c *LiveStreamController) Toggle() error {
	if c.state == models.StreamStateStarted {
		return c.Stop()
	}
	return c.Start()
}

// WindowChanged resubscribes for the new window if streaming
func (c *LiveStreamController) WindowChanged(from, to models.TimeWindow) {
	if c.state != models.StreamStateStarted {
		return
	}
	if err := c.resubscribe(from, to); err != nil {
		log.Warn().
			Err(err).
			Str("old_window", string(from)).
			Str("new_window", string(to)).
			Msg("resubscribe failed, stream stopped")
	}
}

// resubscribe sends stop then start as one transition. Both messages go out
// before any other control message can be issued.
func (c *LiveStreamController) resubscribe(from, to models.TimeWindow) error {
	if err := c.sender.Send(events.Stop()); err != nil {
		c.setState(models.StreamStateStopped)
		return fmt.Errorf("stop for resubscribe: %w", err)
	}
	if err := c.sender.Send(events.Start()); err != nil {
		c.setState(models.StreamStateStopped)
		return fmt.Errorf("start for resubscribe: %w", err)
	}
	log.Info().
		Str("old_window", string(from)).
		Str("new_window", string(to)).
		Msg("live stream resubscribed")
	return nil
}

// Disconnected forces the stream to stopped without sending anything; the
// remote subscription went away with the connection.
func (c *LiveStreamController) Disconnected() {
	if c.state == models.StreamStateStopped {
		return
	}
	c.setState(models.StreamStateStopped)
	log.Info().Msg("live stream stopped by disconnect")
}

// RequestSnapshot asks for an immediate totals snapshot. Not a control
// message; the stream state is untouched.
func (c *LiveStreamController) RequestSnapshot(window models.TimeWindow) error {
	if err := c.sender.Send(events.GetPoints(window)); err != nil {
		if !errors.Is(err, ErrNotConnected) {
			log.Warn().Err(err).Str("window", string(window)).Msg("snapshot request failed")
		}
		return fmt.Errorf("request snapshot: %w", err)
	}
	return nil
}

func (c *LiveStreamController) setState(state models.StreamState) {
	c.state = state
	c.metrics.RecordStreamState(state)
}
