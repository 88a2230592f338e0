// Package retention prunes old screenshot files on a cron schedule.
package retention

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"agentdesk/internal/logger"
)

// Manager runs the prune job.
type Manager struct {
	cron     *cron.Cron
	logger   *logger.Logger
	dir      string
	schedule string
	maxAge   time.Duration
}

// NewManager creates a manager pruning screenshots in dir older than maxAge.
func NewManager(logger *logger.Logger, dir, schedule string, maxAge time.Duration) *Manager {
	return &Manager{
		cron:     cron.New(),
		logger:   logger,
		dir:      dir,
		schedule: schedule,
		maxAge:   maxAge,
	}
}

// Start schedules the job and starts the cron runner.
func (m *Manager) Start() error {
	if _, err := m.cron.AddFunc(m.schedule, m.prune); err != nil {
		return fmt.Errorf("failed to add prune job %q: %w", m.schedule, err)
	}
	m.cron.Start()
	m.logger.Info("Screenshot retention started: schedule=%q max_age=%s", m.schedule, m.maxAge)
	return nil
}

// Stop stops the runner and waits for a running job.
func (m *Manager) Stop() {
	<-m.cron.Stop().Done()
	m.logger.Info("Screenshot retention stopped")
}

func (m *Manager) prune() {
	removed, err := Prune(m.dir, time.Now().Add(-m.maxAge))
	if err != nil {
		m.logger.Error("Failed to prune screenshots: %v", err)
	}
	if len(removed) > 0 {
		m.logger.Info("Pruned %d screenshots", len(removed))
	}
}

// Prune removes screenshot files in dir last modified before cutoff and
// returns their paths. Other files and subdirectories are left alone. A
// missing dir is not an error.
func Prune(dir string, cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading %s: %w", dir, err)
	}

	var removed []string
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() || !isScreenshot(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("error removing %s: %w", path, err))
			continue
		}
		removed = append(removed, path)
	}
	return removed, errors.Join(errs...)
}

func isScreenshot(name string) bool {
	return strings.HasPrefix(name, "screenshot_") && strings.HasSuffix(name, ".png")
}
