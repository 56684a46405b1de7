// Package retention prunes stored datasets past their configured age.
package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DatasetPruner deletes datasets older than the TTL and reports their names.
type DatasetPruner interface {
	DeleteExpired(ctx context.Context, ttl time.Duration) ([]string, error)
}

// ArchivePruner removes every archived export belonging to a dataset.
type ArchivePruner interface {
	DeleteAll(ctx context.Context, dataset string) (int, error)
}

// Config holds configuration for the retention daemon.
type Config struct {
	// TTL is the age after which stored datasets are pruned (default: 30 days).
	TTL time.Duration

	// CheckInterval is how often the daemon sweeps for expired datasets.
	CheckInterval time.Duration
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() Config {
	return Config{
		TTL:           30 * 24 * time.Hour,
		CheckInterval: time.Hour,
	}
}

// Daemon deletes expired datasets and their archived exports in the background.
type Daemon struct {
	config   Config
	store    DatasetPruner
	archives ArchivePruner
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewDaemon creates a retention daemon. archives may be nil when no archive
// storage is configured; expired datasets are then only removed from the store.
func NewDaemon(config Config, store DatasetPruner, archives ArchivePruner, logger *zap.Logger) *Daemon {
	if config.TTL <= 0 {
		config.TTL = 30 * 24 * time.Hour
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Daemon{
		config:   config,
		store:    store,
		archives: archives,
		logger:   logger,
	}
}

// Start begins the retention loop. It runs until the context is cancelled or
// Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("retention: daemon is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.done = make(chan struct{})
	d.mu.Unlock()

	go d.run(ctx)
	return nil
}

// Stop gracefully stops the retention daemon.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.cancel()
	<-d.done
	d.running = false
	return nil
}

// run is the main retention loop.
func (d *Daemon) run(ctx context.Context) {
	defer close(d.done)

	// Run immediately on start
	d.runOnce(ctx)

	ticker := time.NewTicker(d.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

// runOnce performs a single retention sweep: expired datasets come out of the
// store first, then their archived exports are removed from object storage.
func (d *Daemon) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	names, err := d.store.DeleteExpired(ctx, d.config.TTL)
	if err != nil {
		d.logger.Error("retention sweep failed", zap.Error(err))
		return
	}
	if len(names) == 0 {
		return
	}

	d.logger.Info("expired datasets deleted",
		zap.Int("count", len(names)),
		zap.Strings("datasets", names))

	if d.archives == nil {
		return
	}

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		// The registry rows are already gone, so a failed delete here leaves
		// orphaned exports behind rather than being retried on the next sweep.
		deleted, err := d.archives.DeleteAll(ctx, name)
		if err != nil {
			d.logger.Warn("failed to delete archived exports",
				zap.String("dataset", name),
				zap.Error(err))
			continue
		}
		if deleted > 0 {
			d.logger.Info("archived exports deleted",
				zap.String("dataset", name),
				zap.Int("count", deleted))
		}
	}
}

// RunOnce performs a single retention sweep (useful for testing and manual
// triggers).
func (d *Daemon) RunOnce(ctx context.Context) {
	d.runOnce(ctx)
}
