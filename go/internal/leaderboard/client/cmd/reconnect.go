package main

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/housecup/go/internal/leaderboard/client"
	"github.com/mcdev12/housecup/go/internal/models"
	"github.com/rs/zerolog/log"
)

type connector interface {
	State() models.AggregateState
	Connect() error
}

// reconnectPolicy reconnects a dropped session on a fixed interval. Streaming
// is never resumed; the user starts it again.
type reconnectPolicy struct {
	clock    clockwork.Clock
	interval time.Duration
	target   connector
}

func newReconnectPolicy(clock clockwork.Clock, interval time.Duration, target connector) *reconnectPolicy {
	return &reconnectPolicy{
		clock:    clock,
		interval: interval,
		target:   target,
	}
}

func (p *reconnectPolicy) Run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", p.interval).Msg("reconnect policy started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if p.target.State().Connection != models.ConnectionStateDisconnected {
				continue
			}
			log.Info().Msg("points source disconnected, reconnecting")
			if err := p.target.Connect(); err != nil {
				if errors.Is(err, client.ErrSessionClosed) {
					return
				}
				log.Warn().Err(err).Msg("reconnect request failed")
			}
		}
	}
}
