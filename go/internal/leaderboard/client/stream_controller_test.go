package client

import (
	"testing"

	"github.com/mcdev12/housecup/go/internal/leaderboard/events"
	"github.com/mcdev12/housecup/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(sender Sender) *LiveStreamController {
	return NewLiveStreamController(sender, func() models.TimeWindow { return models.TimeWindowCumulative }, nil)
}

func TestStartIsIdempotent(t *testing.T) {
	sender := &recordingSender{}
	c := newTestController(sender)

	require.NoError(t, c.Start())
	require.NoError(t, c.Start())

	assert.Equal(t, models.StreamStateStarted, c.State())
	assert.Equal(t, []events.Action{events.ActionStart}, sender.actions())
}

func TestStopIsIdempotent(t *testing.T) {
	sender := &recordingSender{}
	c := newTestController(sender)

	require.NoError(t, c.Stop())
	assert.Empty(t, sender.sent, "stopping a stopped stream sends nothing")

	require.NoError(t, c.Start())
	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())

	assert.Equal(t, models.StreamStateStopped, c.State())
	assert.Equal(t, []events.Action{events.ActionStart, events.ActionStop}, sender.actions())
}

func TestToggle(t *testing.T) {
	sender := &recordingSender{}
	c := newTestController(sender)

	require.NoError(t, c.Toggle())
	assert.Equal(t, models.StreamStateStarted, c.State())
	require.NoError(t, c.Toggle())
	assert.Equal(t, models.StreamStateStopped, c.State())

	assert.Equal(t, []events.Action{events.ActionStart, events.ActionStop}, sender.actions())
}

func TestWindowChangeWhileStoppedSendsNothing(t *testing.T) {
	sender := &recordingSender{}
	c := newTestController(sender)

	c.WindowChanged(models.TimeWindowCumulative, models.TimeWindowRecent)

	assert.Empty(t, sender.sent)
	assert.Equal(t, models.StreamStateStopped, c.State())
}

func TestWindowChangeWhileStartedResubscribes(t *testing.T) {
	sender := &recordingSender{}
	c := newTestController(sender)
	require.NoError(t, c.Start())
	sender.reset()

	c.WindowChanged(models.TimeWindowCumulative, models.TimeWindowHourly)

	assert.Equal(t, []events.Action{events.ActionStop, events.ActionStart}, sender.actions())
	assert.Equal(t, models.StreamStateStarted, c.State())
}

func TestResubscribeFailureLeavesStreamStopped(t *testing.T) {
	sender := &recordingSender{}
	c := newTestController(sender)
	require.NoError(t, c.Start())

	sender.fail = failAll(ErrNotConnected)
	c.WindowChanged(models.TimeWindowCumulative, models.TimeWindowHourly)

	assert.Equal(t, models.StreamStateStopped, c.State())
}

func TestStartFailureKeepsStreamStopped(t *testing.T) {
	sender := &recordingSender{fail: failAll(ErrNotConnected)}
	c := newTestController(sender)

	err := c.Start()

	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, models.StreamStateStopped, c.State())
}

func TestStopFailureStillStops(t *testing.T) {
	sender := &recordingSender{}
	c := newTestController(sender)
	require.NoError(t, c.Start())

	sender.fail = failAll(ErrNotConnected)
	err := c.Stop()

	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, models.StreamStateStopped, c.State())
}

func TestDisconnectedForcesStoppedWithoutSending(t *testing.T) {
	sender := &recordingSender{}
	c := newTestController(sender)
	require.NoError(t, c.Start())
	sender.reset()

	c.Disconnected()
	assert.Equal(t, models.StreamStateStopped, c.State())

	// nothing further goes out on a later window change
	c.WindowChanged(models.TimeWindowCumulative, models.TimeWindowRecent)
	assert.Empty(t, sender.sent)
}

func TestRequestSnapshotIsNotControl(t *testing.T) {
	sender := &recordingSender{}
	c := newTestController(sender)

	require.NoError(t, c.RequestSnapshot(models.TimeWindowRecent))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, events.GetPoints(models.TimeWindowRecent), sender.sent[0])
	assert.Equal(t, models.StreamStateStopped, c.State())
}
