package client

import "errors"

// ErrNotConnected is returned when a message is sent without a live connection
var ErrNotConnected = errors.New("not connected")

// ErrInvalidWindow is returned when a time window outside the configured set is selected
var ErrInvalidWindow = errors.New("invalid time window")

// ErrMalformedMessage wraps inbound payloads that cannot be decoded or violate the schema
var ErrMalformedMessage = errors.New("malformed message")

// ErrSessionClosed is returned when a request reaches a session that has shut down
var ErrSessionClosed = errors.New("session closed")
