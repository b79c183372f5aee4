package client

import "github.com/mcdev12/housecup/go/internal/models"

// eventLog is a fixed capacity FIFO of recent scoring events
type eventLog struct {
	buf   []models.ScoringEvent
	start int
	size  int
}

func newEventLog(capacity int) *eventLog {
	if capacity < 1 {
		capacity = 1
	}
	return &eventLog{buf: make([]models.ScoringEvent, capacity)}
}

// Append adds an event, evicting the oldest when full
func (l *eventLog) Append(event models.ScoringEvent) {
	if l.size < len(l.buf) {
		l.buf[(l.start+l.size)%len(l.buf)] = event
		l.size++
		return
	}
	l.buf[l.start] = event
	l.start = (l.start + 1) % len(l.buf)
}

// Events returns the logged events oldest first
func (l *eventLog) Events() []models.ScoringEvent {
	out := make([]models.ScoringEvent, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.buf[(l.start+i)%len(l.buf)]
	}
	return out
}

func (l *eventLog) Len() int {
	return l.size
}

func (l *eventLog) Cap() int {
	return len(l.buf)
}
