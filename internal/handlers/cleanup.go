package handlers

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionExpirer is implemented by services.SessionManager.
type SessionExpirer interface {
	Expire() int
}

// Janitor periodically drops idle sessions and deletes stale files from
// scratch directories.
type Janitor struct {
	sessions SessionExpirer
	dirs     []string
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewJanitor(sessions SessionExpirer, dirs []string, maxAge, interval time.Duration, logger *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{
		sessions: sessions,
		dirs:     dirs,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
	}
}

func (j *Janitor) Start() {
	j.ticker = time.NewTicker(j.interval)
	j.done = make(chan struct{})
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		for {
			select {
			case <-j.done:
				return
			case <-j.ticker.C:
				j.RunOnce()
			}
		}
	}()
	j.logger.Info("janitor started", zap.Duration("interval", j.interval))
}

func (j *Janitor) Stop() {
	if j.ticker == nil {
		return
	}
	j.ticker.Stop()
	close(j.done)
	j.wg.Wait()
	j.ticker = nil
	j.logger.Info("janitor stopped")
}

// RunOnce performs one cleanup pass and returns the number of files removed.
func (j *Janitor) RunOnce() int {
	if j.sessions != nil {
		j.sessions.Expire()
	}
	removed := 0
	for _, dir := range j.dirs {
		removed += j.cleanupDirectory(dir)
	}
	return removed
}

func (j *Janitor) cleanupDirectory(dir string) int {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0
	}

	removed := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && time.Since(info.ModTime()) > j.maxAge {
			j.logger.Debug("cleaning up old file", zap.String("path", path))
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		j.logger.Warn("error during cleanup", zap.String("dir", dir), zap.Error(err))
	}
	return removed
}
