package client

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// notificationTimer schedules expiry of the event notification. At most one
// expiry is pending; scheduling replaces the previous one.
type notificationTimer struct {
	clock Clock
	ttl   time.Duration
	post  func(signal) bool

	timer  clockwork.Timer
	cancel chan struct{}
	seq    uint64
}

func newNotificationTimer(clock Clock, ttl time.Duration, post func(signal) bool) *notificationTimer {
	return &notificationTimer{
		clock: clock,
		ttl:   ttl,
		post:  post,
	}
}

// Schedule replaces any pending expiry with one for the event numbered seq
func (n *notificationTimer) Schedule(seq uint64) {
	n.Cancel()

	timer := n.clock.NewTimer(n.ttl)
	cancel := make(chan struct{})
	n.timer = timer
	n.cancel = cancel
	n.seq = seq

	go func(t clockwork.Timer) {
		select {
		case <-t.Chan():
			n.post(notificationExpired{seq: seq})
		case <-cancel:
		}
	}(timer)

	log.Debug().Uint64("event_seq", seq).Dur("ttl", n.ttl).Msg("scheduled notification expiry")
}

// Cancel stops the pending expiry, if any
func (n *notificationTimer) Cancel() {
	if n.timer == nil {
		return
	}
	stopAndDrainTimer(n.timer)
	close(n.cancel)
	n.timer = nil
	n.cancel = nil
}

// Fired clears the pending expiry once its signal has been handled
func (n *notificationTimer) Fired(seq uint64) {
	if n.timer == nil || n.seq != seq {
		return
	}
	n.timer = nil
	n.cancel = nil
}

// Pending reports whether an expiry is scheduled
func (n *notificationTimer) Pending() bool {
	return n.timer != nil
}

// stopAndDrainTimer safely stops a timer and drains its channel to prevent goroutine leaks.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
