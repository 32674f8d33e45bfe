// Package worker runs the deferred channel teardown that follows a
// ticket close. The delay is cancellable only by process shutdown;
// deletion failures are logged, never retried.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/community-tickets/internal/gateway"
)

// TeardownScheduler deletes ticket channels a fixed delay after close.
type TeardownScheduler struct {
	routing gateway.RoutingProvider
	logger  *zap.Logger
	delay   time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewTeardownScheduler builds the scheduler.
func NewTeardownScheduler(routing gateway.RoutingProvider, logger *zap.Logger, delay time.Duration) *TeardownScheduler {
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &TeardownScheduler{
		routing: routing,
		logger:  logger,
		delay:   delay,
		timers:  make(map[string]*time.Timer),
	}
}

// Schedule queues a channel for deletion after the configured delay.
// Scheduling the same channel twice is a no-op. The timer is in-process
// only; it does not survive a restart.
func (s *TeardownScheduler) Schedule(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, ok := s.timers[channelID]; ok {
		return
	}
	s.timers[channelID] = time.AfterFunc(s.delay, func() {
		s.teardown(channelID)
	})
}

func (s *TeardownScheduler) teardown(channelID string) {
	s.mu.Lock()
	delete(s.timers, channelID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.routing.DeleteChannel(ctx, channelID); err != nil {
		// Channel may already be gone; the close is committed either way.
		s.logger.Warn("ticket channel teardown failed",
			zap.String("channel_id", channelID),
			zap.Error(err))
		return
	}
	s.logger.Info("ticket channel deleted", zap.String("channel_id", channelID))
}

// Stop cancels all pending teardowns. Called on shutdown.
func (s *TeardownScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for channelID, timer := range s.timers {
		timer.Stop()
		delete(s.timers, channelID)
	}
}
