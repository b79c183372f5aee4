package client

import (
	"encoding/json"
	"testing"

	"github.com/mcdev12/housecup/go/internal/leaderboard/events"
	"github.com/mcdev12/housecup/go/internal/models"
	"github.com/stretchr/testify/require"
)

// recordingSender captures commands in order. fail, when set, decides which
// commands are rejected.
type recordingSender struct {
	sent []events.Command
	fail func(cmd events.Command) error
}

func (r *recordingSender) Send(cmd events.Command) error {
	if r.fail != nil {
		if err := r.fail(cmd); err != nil {
			return err
		}
	}
	r.sent = append(r.sent, cmd)
	return nil
}

func (r *recordingSender) actions() []events.Action {
	out := make([]events.Action, 0, len(r.sent))
	for _, cmd := range r.sent {
		out = append(out, cmd.Action)
	}
	return out
}

func (r *recordingSender) reset() {
	r.sent = nil
}

func failAll(err error) func(events.Command) error {
	return func(events.Command) error { return err }
}

func mustMessage(t *testing.T, event models.ScoringEvent) *events.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return &events.Message{Event: data}
}
