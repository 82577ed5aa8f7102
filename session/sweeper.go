/*
sweeper.go - Periodic purge of expired sessions

PURPOSE:
  Get already evicts expired sessions it touches. The sweeper removes the
  ones nobody touches again (closed tabs), so the session table does not
  grow without bound.

USAGE:
  sweeper := session.NewSweeper(manager, 10*time.Minute, logger)
  sweeper.Start()
  // ... later
  sweeper.Stop()
*/
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper runs Manager.Sweep on a ticker.
type Sweeper struct {
	Manager  *Manager
	Interval time.Duration

	logger *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewSweeper(m *Manager, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		Manager:  m,
		Interval: interval,
		logger:   logger.Named("sweeper"),
	}
}

// Start begins sweeping. A non-positive interval disables the sweeper.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Interval <= 0 {
		s.logger.Info("disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker.C, s.stop)

	s.logger.Info("started", zap.Duration("interval", s.Interval))
}

// Stop halts the sweeper and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.logger.Info("stopped")
	}
}

func (s *Sweeper) run(tick <-chan time.Time, stop <-chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-tick:
			s.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow performs one sweep immediately.
func (s *Sweeper) RunNow() {
	removed, err := s.Manager.Sweep(context.Background())
	if err != nil {
		s.logger.Error("sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", zap.Int("count", removed))
	}
}
