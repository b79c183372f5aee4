package client

import (
	"github.com/gorilla/websocket"
	"github.com/mcdev12/housecup/go/internal/models"
)

// signal is the closed set of inputs the session loop processes.
// Every state change in a session starts as one of these.
type signal interface {
	isSignal()
}

// Transport signals carry the generation of the connection attempt that
// produced them so late deliveries from a torn down transport are ignored.
type transportOpened struct {
	gen  string
	conn *websocket.Conn
}

type transportMessage struct {
	gen  string
	data []byte
}

type transportClosed struct {
	gen string
	err error
}

// User intent
type connectRequested struct{}

type disconnectRequested struct{}

type windowRequested struct {
	window models.TimeWindow
}

type liveRequested struct {
	start bool
}

type liveToggled struct{}

type refreshRequested struct{}

type categorySelected struct {
	category *models.Category
}

// Timer
type notificationExpired struct {
	seq uint64
}

func (transportOpened) isSignal()     {}
func (transportMessage) isSignal()    {}
func (transportClosed) isSignal()     {}
func (connectRequested) isSignal()    {}
func (disconnectRequested) isSignal() {}
func (windowRequested) isSignal()     {}
func (liveRequested) isSignal()       {}
func (liveToggled) isSignal()         {}
func (refreshRequested) isSignal()    {}
func (categorySelected) isSignal()    {}
func (notificationExpired) isSignal() {}
