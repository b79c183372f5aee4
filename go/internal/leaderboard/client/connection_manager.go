package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/housecup/go/internal/leaderboard/events"
	"github.com/mcdev12/housecup/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Sender is the outbound half of the points source connection
type Sender interface {
	Send(cmd events.Command) error
}

// ConnectionManager owns the single websocket connection to the points source.
//
// All methods except the pump goroutines run on the session loop. The pumps
// never touch manager state; they report back through post.
type ConnectionManager struct {
	config  ConnectionConfig
	dialer  *websocket.Dialer
	post    func(signal) bool
	metrics MetricsCollector

	state      models.ConnectionState
	gen        string
	cancelDial context.CancelFunc
	current    *transport

	onMessage func(data []byte)
}

// transport is one established websocket. release closes it exactly once
// whichever teardown path gets there first.
type transport struct {
	conn *websocket.Conn
	done chan struct{}
	once sync.Once
}

func (t *transport) release() {
	t.once.Do(func() {
		close(t.done)
		if err := t.conn.Close(); err != nil {
			log.Debug().Err(err).Msg("websocket close returned error")
		}
	})
}

// NewConnectionManager creates a connection manager in the disconnected state
func NewConnectionManager(config ConnectionConfig, post func(signal) bool, metrics MetricsCollector) *ConnectionManager {
	if metrics == nil {
		metrics = &NoOpMetricsCollector{}
	}
	cm := &ConnectionManager{
		config: config,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.HandshakeTimeout,
			ReadBufferSize:   config.ReadBufferSize,
			WriteBufferSize:  config.WriteBufferSize,
		},
		post:      post,
		metrics:   metrics,
		state:     models.ConnectionStateDisconnected,
		onMessage: func([]byte) {},
	}
	metrics.RecordConnectionState(cm.state)
	return cm
}

// State returns the current connection state
func (cm *ConnectionManager) State() models.ConnectionState {
	return cm.state
}

// OnMessage registers the single consumer of inbound frames
func (cm *ConnectionManager) OnMessage(handler func(data []byte)) {
	if handler == nil {
		handler = func([]byte) {}
	}
	cm.onMessage = handler
}

// Connect starts one connection attempt. The outcome arrives later as a
// transport signal; failures only show up as the disconnected state.
func (cm *ConnectionManager) Connect() {
	if cm.state != models.ConnectionStateDisconnected {
		log.Debug().Str("state", string(cm.state)).Msg("connect ignored, connection already active")
		return
	}

	gen := uuid.New().String()
	var ctx context.Context
	var cancel context.CancelFunc
	if cm.config.HandshakeTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), cm.config.HandshakeTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	cm.gen = gen
	cm.cancelDial = cancel
	cm.setState(models.ConnectionStateConnecting)

	log.Info().
		Str("connection_id", gen).
		Str("url", cm.config.URL).
		Msg("connecting to points source")

	go func() {
		defer cancel()
		conn, _, err := cm.dialer.DialContext(ctx, cm.config.URL, nil)
		if err != nil {
			cm.post(transportClosed{gen: gen, err: fmt.Errorf("websocket dial: %w", err)})
			return
		}
		if !cm.post(transportOpened{gen: gen, conn: conn}) {
			conn.Close()
		}
	}()
}

// Send writes a command to the points source. It never queues: without a
// live connection the command is dropped and ErrNotConnected returned.
func (cm *ConnectionManager) Send(cmd events.Command) error {
	if cm.state != models.ConnectionStateConnected || cm.current == nil {
		cm.metrics.RecordDropped(dropNotConnected)
		log.Warn().
			Str("action", string(cmd.Action)).
			Str("state", string(cm.state)).
			Msg("dropping outbound message, not connected")
		return ErrNotConnected
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	conn := cm.current.conn
	conn.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Error().
			Err(err).
			Str("connection_id", cm.gen).
			Str("action", string(cmd.Action)).
			Msg("failed to write message to websocket")
		// The read pump sees the closed socket and reports the disconnect.
		cm.current.release()
		return fmt.Errorf("write %s: %w", cmd.Action, err)
	}

	cm.metrics.RecordCommandSent(string(cmd.Action))
	log.Debug().
		Str("connection_id", cm.gen).
		RawJSON("message", data).
		Msg("sent message")
	return nil
}

// Close tears down the current connection or pending attempt. Safe to call
// any number of times; a later Connect starts over.
func (cm *ConnectionManager) Close() {
	if cm.state == models.ConnectionStateDisconnected {
		return
	}

	if cm.current != nil {
		deadline := time.Now().Add(cm.config.WriteTimeout)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := cm.current.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			log.Debug().Err(err).Msg("failed to send close frame")
		}
	}

	log.Info().Str("connection_id", cm.gen).Msg("closing connection to points source")
	cm.teardown()
}

// handleOpened adopts a dialed connection. Returns true if the state changed.
func (cm *ConnectionManager) handleOpened(sig transportOpened) bool {
	if sig.gen != cm.gen || cm.state != models.ConnectionStateConnecting {
		log.Debug().Str("connection_id", sig.gen).Msg("discarding stale connection")
		sig.conn.Close()
		return false
	}

	t := &transport{conn: sig.conn, done: make(chan struct{})}
	cm.current = t
	cm.cancelDial = nil
	cm.setState(models.ConnectionStateConnected)

	go cm.readPump(sig.gen, t)
	go cm.pingLoop(sig.gen, t)

	log.Info().Str("connection_id", sig.gen).Msg("websocket connection established")
	return true
}

// handleMessage hands a frame from the live connection to the consumer
func (cm *ConnectionManager) handleMessage(sig transportMessage) {
	if sig.gen != cm.gen || cm.state != models.ConnectionStateConnected {
		return
	}
	log.Debug().Str("connection_id", sig.gen).Int("bytes", len(sig.data)).Msg("received message")
	cm.onMessage(sig.data)
}

// handleClosed records the loss of the connection. Returns true if the state changed.
func (cm *ConnectionManager) handleClosed(sig transportClosed) bool {
	if sig.gen != cm.gen || cm.state == models.ConnectionStateDisconnected {
		return false
	}

	event := log.Info()
	if sig.err != nil && !websocket.IsCloseError(sig.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		event = log.Error().Err(sig.err)
	}
	event.
		Str("connection_id", sig.gen).
		Str("previous_state", string(cm.state)).
		Msg("websocket connection closed")

	cm.teardown()
	return true
}

func (cm *ConnectionManager) teardown() {
	if cm.cancelDial != nil {
		cm.cancelDial()
		cm.cancelDial = nil
	}
	if cm.current != nil {
		cm.current.release()
		cm.current = nil
	}
	// Anything still in flight for this generation is now stale.
	cm.gen = ""
	cm.setState(models.ConnectionStateDisconnected)
}

func (cm *ConnectionManager) setState(state models.ConnectionState) {
	cm.state = state
	cm.metrics.RecordConnectionState(state)
}

// readPump forwards frames to the session loop until the socket fails
func (cm *ConnectionManager) readPump(gen string, t *transport) {
	conn := t.conn
	conn.SetReadLimit(cm.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.release()
			cm.post(transportClosed{gen: gen, err: err})
			return
		}
		conn.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
		if !cm.post(transportMessage{gen: gen, data: data}) {
			t.release()
			return
		}
	}
}

// pingLoop keeps the connection alive. WriteControl may run concurrently
// with the loop's writes.
func (cm *ConnectionManager) pingLoop(gen string, t *transport) {
	if cm.config.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cm.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(cm.config.WriteTimeout)
			if err := t.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Debug().Err(err).Str("connection_id", gen).Msg("failed to send ping")
				return
			}
		}
	}
}
