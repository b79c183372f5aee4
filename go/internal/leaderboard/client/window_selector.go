package client

import (
	"fmt"

	"github.com/mcdev12/housecup/go/internal/models"
	"github.com/rs/zerolog/log"
)

// TimeWindowSelector holds the selected reporting window and notifies
// listeners when it changes. It has no connection side effects.
type TimeWindowSelector struct {
	windows   []models.TimeWindow
	valid     map[models.TimeWindow]bool
	selected  models.TimeWindow
	listeners []func(from, to models.TimeWindow)
}

// NewTimeWindowSelector creates a selector over a fixed window set
func NewTimeWindowSelector(windows []models.TimeWindow, initial models.TimeWindow) (*TimeWindowSelector, error) {
	s := &TimeWindowSelector{
		windows: append([]models.TimeWindow(nil), windows...),
		valid:   make(map[models.TimeWindow]bool, len(windows)),
	}
	for _, w := range windows {
		s.valid[w] = true
	}
	if !s.valid[initial] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWindow, initial)
	}
	s.selected = initial
	return s, nil
}

// Selected returns the current window
func (s *TimeWindowSelector) Selected() models.TimeWindow {
	return s.selected
}

// Windows returns the configured window set in order
func (s *TimeWindowSelector) Windows() []models.TimeWindow {
	return append([]models.TimeWindow(nil), s.windows...)
}

// Valid reports whether w belongs to the window set
func (s *TimeWindowSelector) Valid(w models.TimeWindow) bool {
	return s.valid[w]
}

// OnChange registers a listener; listeners run in registration order
func (s *TimeWindowSelector) OnChange(fn func(from, to models.TimeWindow)) {
	s.listeners = append(s.listeners, fn)
}

// Select makes w the current window. Selecting the current window is a no-op.
func (s *TimeWindowSelector) Select(w models.TimeWindow) error {
	if !s.valid[w] {
		return fmt.Errorf("%w: %q", ErrInvalidWindow, w)
	}
	if w == s.selected {
		return nil
	}

	old := s.selected
	s.selected = w
	log.Info().
		Str("old_window", string(old)).
		Str("new_window", string(w)).
		Msg("time window changed")

	for _, fn := range s.listeners {
		fn(old, w)
	}
	return nil
}
