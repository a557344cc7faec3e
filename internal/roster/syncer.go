package roster

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Syncer refreshes a Provider from a Source on a fixed interval. Each
// refresh is a full replace; results from a superseded refresh are dropped.
type Syncer struct {
	provider *Provider
	source   Source
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewSyncer(provider *Provider, source Source, interval time.Duration, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		provider: provider,
		source:   source,
		interval: interval,
		timeout:  30 * time.Second,
		logger:   logger,
	}
}

// SyncNow fetches the roster and applies it unless a newer sync already
// landed. It reports whether the fetched snapshot was applied.
func (s *Syncer) SyncNow(ctx context.Context) (bool, error) {
	gen := s.provider.Begin()
	snap, err := s.source.Fetch(ctx)
	if err != nil {
		return false, err
	}
	applied := s.provider.Commit(gen, snap)
	if !applied {
		s.logger.Debug("stale roster sync dropped", zap.Uint64("generation", uint64(gen)))
		return false, nil
	}
	s.logger.Info("roster synced",
		zap.Uint64("generation", uint64(gen)),
		zap.Int("workers", len(snap.Workers)),
		zap.Int("cuadrillas", len(snap.Cuadrillas)),
		zap.Int("zonas", len(snap.Zonas)))
	return true, nil
}

func (s *Syncer) Start() {
	if s.interval <= 0 {
		return
	}
	s.ticker = time.NewTicker(s.interval)
	s.done = make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.done:
				return
			case <-s.ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
				if _, err := s.SyncNow(ctx); err != nil {
					s.logger.Warn("roster sync failed", zap.Error(err))
				}
				cancel()
			}
		}
	}()
	s.logger.Info("roster syncer started", zap.Duration("interval", s.interval))
}

func (s *Syncer) Stop() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.done)
	s.wg.Wait()
	s.ticker = nil
	s.logger.Info("roster syncer stopped")
}
