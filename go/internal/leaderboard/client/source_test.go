package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/housecup/go/internal/leaderboard/events"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// fakeSource is a points source that records the commands it receives and
// hands each accepted connection to the test
type fakeSource struct {
	server   *httptest.Server
	received chan events.Command
	accepted chan *websocket.Conn

	mu    sync.Mutex
	conns []*websocket.Conn
}

func newFakeSource(t *testing.T) *fakeSource {
	t.Helper()
	fs := &fakeSource{
		received: make(chan events.Command, 64),
		accepted: make(chan *websocket.Conn, 4),
	}

	fs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		fs.mu.Lock()
		fs.conns = append(fs.conns, conn)
		fs.mu.Unlock()
		fs.accepted <- conn

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var cmd events.Command
			if err := json.Unmarshal(data, &cmd); err != nil {
				t.Errorf("unmarshal command: %v", err)
				continue
			}
			fs.received <- cmd
		}
	}))

	t.Cleanup(func() {
		fs.mu.Lock()
		for _, conn := range fs.conns {
			conn.Close()
		}
		fs.mu.Unlock()
		fs.server.Close()
	})
	return fs
}

func (fs *fakeSource) URL() string {
	return "ws" + strings.TrimPrefix(fs.server.URL, "http")
}

func (fs *fakeSource) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-fs.accepted:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client connection")
	}
	return nil
}

func (fs *fakeSource) expectCommand(t *testing.T) events.Command {
	t.Helper()
	select {
	case cmd := <-fs.received:
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for command")
	}
	return events.Command{}
}

func (fs *fakeSource) expectCommands(t *testing.T, n int) []events.Action {
	t.Helper()
	out := make([]events.Action, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fs.expectCommand(t).Action)
	}
	return out
}

func (fs *fakeSource) expectNoCommand(t *testing.T) {
	t.Helper()
	select {
	case cmd := <-fs.received:
		t.Fatalf("unexpected command %q", cmd.Action)
	case <-time.After(100 * time.Millisecond):
	}
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func testConnectionConfig(url string) ConnectionConfig {
	config := DefaultConnectionConfig()
	config.URL = url
	config.HandshakeTimeout = 2 * time.Second
	config.WriteTimeout = time.Second
	return config
}
