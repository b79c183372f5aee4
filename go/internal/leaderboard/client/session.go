package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/housecup/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Session is one client's view of the leaderboard.
//
// Run owns every component and processes signals one at a time. The public
// methods are safe for concurrent use: they validate what they can, post a
// signal and return. Results show up in the published state.
type Session struct {
	id      string
	config  Config
	clock   Clock
	metrics MetricsCollector

	signals   chan signal
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	running   atomic.Bool

	conn     *ConnectionManager
	selector *TimeWindowSelector
	stream   *LiveStreamController
	store    *AggregateStateStore
	notifier *notificationTimer

	selectedCategory *models.Category
	// outstanding get_points requests per window
	requested map[models.TimeWindow]int

	version uint64
	state   atomic.Pointer[models.AggregateState]
	updates chan models.AggregateState
}

// Option configures a Session
type Option func(*Session)

// WithClock sets the clock used for notification expiry
func WithClock(clock Clock) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(metrics MetricsCollector) Option {
	return func(s *Session) {
		s.metrics = metrics
	}
}

// NewSession validates the config and wires a disconnected, stopped session.
// Nothing happens until Run is started.
func NewSession(config Config, opts ...Option) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Session{
		id:        uuid.New().String(),
		config:    config,
		clock:     clockwork.NewRealClock(),
		metrics:   &NoOpMetricsCollector{},
		signals:   make(chan signal, config.SignalBufferSize),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
		requested: make(map[models.TimeWindow]int),
		updates:   make(chan models.AggregateState, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	selector, err := NewTimeWindowSelector(config.Windows, config.DefaultWindow)
	if err != nil {
		return nil, err
	}
	s.selector = selector
	s.conn = NewConnectionManager(config.Connection, s.post, s.metrics)
	s.stream = NewLiveStreamController(s.conn, selector.Selected, s.metrics)
	s.store = NewAggregateStateStore(config.Categories, config.Windows, config.DefaultWindow, config.EventLogCapacity, s.metrics)
	s.notifier = newNotificationTimer(s.clock, config.NotificationTTL, s.post)

	s.conn.OnMessage(s.handleFrame)

	// The view switches first so a resubscribe never runs against stale totals.
	selector.OnChange(func(_, to models.TimeWindow) {
		s.store.SelectWindow(to)
	})
	if config.RefreshOnWindowChange {
		selector.OnChange(func(_, to models.TimeWindow) {
			s.requestSnapshot(to)
		})
	}
	selector.OnChange(s.stream.WindowChanged)

	s.publish()
	return s, nil
}

// ID identifies the session in logs
func (s *Session) ID() string {
	return s.id
}

// Run processes signals until ctx is done or Close is called. It returns
// once the session has shut down.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("session already running")
	}

	log.Info().
		Str("session_id", s.id).
		Str("window", string(s.selector.Selected())).
		Str("url", s.config.Connection.URL).
		Msg("leaderboard session started")

	defer func() {
		close(s.stopped)
		s.drain()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("session_id", s.id).Msg("session shutdown requested")
			s.shutdown()
			return nil
		case <-s.quit:
			s.shutdown()
			return nil
		case sig := <-s.signals:
			s.dispatch(sig)
			s.publish()
		}
	}
}

func (s *Session) dispatch(sig signal) {
	switch sig := sig.(type) {
	case transportOpened:
		if s.conn.handleOpened(sig) {
			s.requestSnapshot(s.selector.Selected())
		}

	case transportMessage:
		s.conn.handleMessage(sig)

	case transportClosed:
		if s.conn.handleClosed(sig) {
			s.connectionLost()
		}

	case connectRequested:
		s.conn.Connect()

	case disconnectRequested:
		if s.conn.State() == models.ConnectionStateDisconnected {
			return
		}
		s.conn.Close()
		s.connectionLost()

	case windowRequested:
		if err := s.selector.Select(sig.window); err != nil {
			log.Warn().Err(err).Msg("window selection rejected")
		}

	case liveRequested:
		// failures are logged by the controller
		if sig.start {
			_ = s.stream.Start()
		} else {
			_ = s.stream.Stop()
		}

	case liveToggled:
		_ = s.stream.Toggle()

	case refreshRequested:
		s.requestSnapshot(s.selector.Selected())

	case categorySelected:
		s.selectedCategory = sig.category

	case notificationExpired:
		s.notifier.Fired(sig.seq)
		if s.store.ExpireNotification(sig.seq) {
			log.Debug().Uint64("event_seq", sig.seq).Msg("notification expired")
		}

	default:
		log.Error().Str("signal", fmt.Sprintf("%T", sig)).Msg("unhandled session signal")
	}
}

// handleFrame routes one inbound frame into the store
func (s *Session) handleFrame(data []byte) {
	result, err := s.store.HandleRaw(data)
	if err != nil {
		log.Warn().Err(err).Str("session_id", s.id).Msg("dropping malformed message")
	}

	for _, window := range result.Windows {
		if s.requested[window] > 0 {
			s.requested[window]--
			continue
		}
		log.Debug().Str("window", string(window)).Msg("received unsolicited snapshot")
	}

	if result.Event != nil {
		s.notifier.Schedule(result.EventSeq)
	}
}

func (s *Session) requestSnapshot(window models.TimeWindow) {
	if err := s.stream.RequestSnapshot(window); err != nil {
		return
	}
	s.requested[window]++
}

// connectionLost resets everything tied to the old connection
func (s *Session) connectionLost() {
	s.stream.Disconnected()
	s.notifier.Cancel()
	s.store.HideNotification()
	clear(s.requested)
}

func (s *Session) shutdown() {
	s.conn.Close()
	s.stream.Disconnected()
	s.notifier.Cancel()
	s.store.HideNotification()
	s.publish()
	close(s.updates)

	log.Info().
		Str("session_id", s.id).
		Uint64("version", s.version).
		Msg("leaderboard session stopped")
}

// drain releases connections that were dialed but never adopted
func (s *Session) drain() {
	for {
		select {
		case sig := <-s.signals:
			if opened, ok := sig.(transportOpened); ok {
				opened.conn.Close()
			}
		default:
			return
		}
	}
}

// publish swaps in a fresh state and offers it to Updates, replacing any
// value the consumer has not read yet
func (s *Session) publish() {
	s.version++
	state := &models.AggregateState{
		Window:              s.store.Window(),
		Totals:              s.store.Totals(),
		LatestEvent:         s.store.LatestEvent(),
		NotificationVisible: s.store.NotificationVisible(),
		RecentEvents:        s.store.RecentEvents(),
		Connection:          s.conn.State(),
		Stream:              s.stream.State(),
		Version:             s.version,
		UpdatedAt:           s.clock.Now(),
	}
	if s.selectedCategory != nil {
		category := *s.selectedCategory
		state.SelectedCategory = &category
	}
	s.state.Store(state)

	select {
	case <-s.updates:
	default:
	}
	s.updates <- *state
}

func (s *Session) post(sig signal) bool {
	select {
	case <-s.stopped:
		return false
	default:
	}
	select {
	case s.signals <- sig:
		return true
	case <-s.stopped:
		return false
	}
}

func (s *Session) request(sig signal) error {
	if !s.post(sig) {
		return ErrSessionClosed
	}
	return nil
}

// State returns the most recently published state
func (s *Session) State() models.AggregateState {
	return *s.state.Load()
}

// Updates delivers published states. Only the latest unread state is kept.
// The channel is closed when the session stops.
func (s *Session) Updates() <-chan models.AggregateState {
	return s.updates
}

// Windows returns the selectable time windows
func (s *Session) Windows() []models.TimeWindow {
	return append([]models.TimeWindow(nil), s.config.Windows...)
}

// Categories returns the configured categories
func (s *Session) Categories() []models.Category {
	return append([]models.Category(nil), s.config.Categories...)
}

// Connect starts a connection attempt if disconnected
func (s *Session) Connect() error {
	return s.request(connectRequested{})
}

// Disconnect closes the connection and stops streaming
func (s *Session) Disconnect() error {
	return s.request(disconnectRequested{})
}

// SelectWindow switches the time window. An unknown window is rejected here
// and never reaches the points source.
func (s *Session) SelectWindow(window models.TimeWindow) error {
	if !s.selector.Valid(window) {
		return fmt.Errorf("%w: %q", ErrInvalidWindow, window)
	}
	return s.request(windowRequested{window: window})
}

// StartLive starts streaming scoring events
func (s *Session) StartLive() error {
	return s.request(liveRequested{start: true})
}

// StopLive stops streaming scoring events
func (s *Session) StopLive() error {
	return s.request(liveRequested{start: false})
}

// ToggleLive flips the streaming state
func (s *Session) ToggleLive() error {
	return s.request(liveToggled{})
}

// Refresh requests a fresh snapshot for the selected window
func (s *Session) Refresh() error {
	return s.request(refreshRequested{})
}

// SelectCategory highlights a category in the view; nil clears it. The
// selection is view state only and never reaches the points source.
func (s *Session) SelectCategory(category *models.Category) error {
	if category != nil {
		c := *category
		category = &c
	}
	return s.request(categorySelected{category: category})
}

// Close stops the session and waits for Run to finish. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	if s.running.Load() {
		<-s.stopped
	}
	return nil
}
