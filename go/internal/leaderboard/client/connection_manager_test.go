package client

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/housecup/go/internal/leaderboard/events"
	"github.com/mcdev12/housecup/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnectionManager(url string) (*ConnectionManager, chan signal) {
	signals := make(chan signal, 16)
	cm := NewConnectionManager(testConnectionConfig(url), func(sig signal) bool {
		signals <- sig
		return true
	}, nil)
	return cm, signals
}

func nextSignal(t *testing.T, signals <-chan signal) signal {
	t.Helper()
	select {
	case sig := <-signals:
		return sig
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transport signal")
	}
	return nil
}

func requireSignal[T signal](t *testing.T, signals <-chan signal) T {
	t.Helper()
	sig := nextSignal(t, signals)
	typed, ok := sig.(T)
	require.True(t, ok, "unexpected signal %T", sig)
	return typed
}

// connectTestManager drives a manager to connected against source
func connectTestManager(t *testing.T, source *fakeSource) (*ConnectionManager, chan signal) {
	t.Helper()
	cm, signals := newTestConnectionManager(source.URL())

	cm.Connect()
	assert.Equal(t, models.ConnectionStateConnecting, cm.State())

	opened := requireSignal[transportOpened](t, signals)
	require.True(t, cm.handleOpened(opened))
	require.Equal(t, models.ConnectionStateConnected, cm.State())
	t.Cleanup(cm.Close)
	return cm, signals
}

func TestConnectionManagerConnectAndSend(t *testing.T) {
	source := newFakeSource(t)
	cm, _ := connectTestManager(t, source)
	source.accept(t)

	require.NoError(t, cm.Send(events.GetPoints(models.TimeWindowHourly)))
	require.NoError(t, cm.Send(events.Start()))

	assert.Equal(t, events.GetPoints(models.TimeWindowHourly), source.expectCommand(t))
	assert.Equal(t, events.Start(), source.expectCommand(t))
}

func TestConnectionManagerDeliversMessages(t *testing.T) {
	source := newFakeSource(t)
	cm, signals := connectTestManager(t, source)
	conn := source.accept(t)

	var received []string
	cm.OnMessage(func(data []byte) {
		received = append(received, string(data))
	})

	writeFrame(t, conn, `{"status":"started"}`)
	cm.handleMessage(requireSignal[transportMessage](t, signals))

	assert.Equal(t, []string{`{"status":"started"}`}, received)
}

func TestConnectionManagerRemoteClose(t *testing.T) {
	source := newFakeSource(t)
	cm, signals := connectTestManager(t, source)
	conn := source.accept(t)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, msg))

	closed := requireSignal[transportClosed](t, signals)
	assert.True(t, websocket.IsCloseError(closed.err, websocket.CloseNormalClosure))
	require.True(t, cm.handleClosed(closed))
	assert.Equal(t, models.ConnectionStateDisconnected, cm.State())

	err := cm.Send(events.Start())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestConnectionManagerDialFailure(t *testing.T) {
	source := newFakeSource(t)
	url := source.URL()
	source.server.Close()

	cm, signals := newTestConnectionManager(url)
	cm.Connect()

	closed := requireSignal[transportClosed](t, signals)
	assert.Error(t, closed.err)
	require.True(t, cm.handleClosed(closed))
	assert.Equal(t, models.ConnectionStateDisconnected, cm.State())
}

func TestConnectionManagerSendWhileDisconnected(t *testing.T) {
	cm, _ := newTestConnectionManager("ws://127.0.0.1:1/ws")

	err := cm.Send(events.Start())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestConnectionManagerConnectIsNoOpWhenActive(t *testing.T) {
	source := newFakeSource(t)
	cm, signals := connectTestManager(t, source)
	source.accept(t)

	gen := cm.gen
	cm.Connect()

	assert.Equal(t, gen, cm.gen)
	assert.Equal(t, models.ConnectionStateConnected, cm.State())
	select {
	case sig := <-signals:
		t.Fatalf("unexpected signal %T", sig)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConnectionManagerCloseIsIdempotent(t *testing.T) {
	source := newFakeSource(t)
	cm, signals := connectTestManager(t, source)
	source.accept(t)

	cm.Close()
	cm.Close()
	assert.Equal(t, models.ConnectionStateDisconnected, cm.State())

	// the read pump still reports the closed socket; it is stale by now
	closed := requireSignal[transportClosed](t, signals)
	assert.False(t, cm.handleClosed(closed))
	assert.Equal(t, models.ConnectionStateDisconnected, cm.State())
}

func TestConnectionManagerReconnectAfterClose(t *testing.T) {
	source := newFakeSource(t)
	cm, signals := connectTestManager(t, source)
	source.accept(t)

	cm.Close()
	requireSignal[transportClosed](t, signals)

	cm.Connect()
	opened := requireSignal[transportOpened](t, signals)
	require.True(t, cm.handleOpened(opened))
	source.accept(t)

	require.NoError(t, cm.Send(events.Stop()))
	assert.Equal(t, events.Stop(), source.expectCommand(t))
}

func TestConnectionManagerDiscardsStaleOpen(t *testing.T) {
	source := newFakeSource(t)
	cm, signals := newTestConnectionManager(source.URL())

	cm.Connect()
	opened := requireSignal[transportOpened](t, signals)
	// the attempt is abandoned before its result is handled
	cm.Close()

	assert.False(t, cm.handleOpened(opened))
	assert.Equal(t, models.ConnectionStateDisconnected, cm.State())
}

func TestConnectionManagerIgnoresStaleMessages(t *testing.T) {
	source := newFakeSource(t)
	cm, _ := connectTestManager(t, source)
	source.accept(t)

	called := false
	cm.OnMessage(func([]byte) { called = true })

	cm.handleMessage(transportMessage{gen: "previous", data: []byte(`{}`)})
	assert.False(t, called)
}
