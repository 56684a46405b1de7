package retention

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

type stubStore struct {
	mu      sync.Mutex
	expired []string
	err     error
	sweeps  int
	lastTTL time.Duration
}

func (s *stubStore) DeleteExpired(ctx context.Context, ttl time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps++
	s.lastTTL = ttl
	if s.err != nil {
		return nil, s.err
	}
	names := s.expired
	s.expired = nil
	return names, nil
}

func (s *stubStore) sweepCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweeps
}

type stubArchives struct {
	mu      sync.Mutex
	deleted []string
	errFor  map[string]error
}

func (a *stubArchives) DeleteAll(ctx context.Context, dataset string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err, ok := a.errFor[dataset]; ok {
		return 0, err
	}
	a.deleted = append(a.deleted, dataset)
	return 1, nil
}

func (a *stubArchives) deletedNames() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := append([]string(nil), a.deleted...)
	sort.Strings(out)
	return out
}

func TestDaemon_SweepDeletesStoreAndArchives(t *testing.T) {
	store := &stubStore{expired: []string{"orders", "customers"}}
	archives := &stubArchives{}
	d := NewDaemon(Config{TTL: 24 * time.Hour, CheckInterval: time.Hour}, store, archives, nil)

	d.RunOnce(context.Background())

	if store.sweepCount() != 1 {
		t.Fatalf("expected 1 sweep, got %d", store.sweepCount())
	}
	if store.lastTTL != 24*time.Hour {
		t.Errorf("expected ttl 24h passed to store, got %s", store.lastTTL)
	}
	got := archives.deletedNames()
	if len(got) != 2 || got[0] != "customers" || got[1] != "orders" {
		t.Errorf("expected archives deleted for both datasets, got %v", got)
	}
}

func TestDaemon_ArchiveFailureDoesNotHaltSweep(t *testing.T) {
	store := &stubStore{expired: []string{"first", "second", "third"}}
	archives := &stubArchives{errFor: map[string]error{"second": errors.New("listing failed")}}
	d := NewDaemon(DefaultConfig(), store, archives, nil)

	d.RunOnce(context.Background())

	got := archives.deletedNames()
	if len(got) != 2 || got[0] != "first" || got[1] != "third" {
		t.Errorf("expected the other datasets still cleaned up, got %v", got)
	}
}

func TestDaemon_StoreFailureSkipsArchives(t *testing.T) {
	store := &stubStore{err: errors.New("database locked")}
	archives := &stubArchives{}
	d := NewDaemon(DefaultConfig(), store, archives, nil)

	d.RunOnce(context.Background())

	if len(archives.deletedNames()) != 0 {
		t.Errorf("expected no archive deletes after store failure, got %v", archives.deletedNames())
	}
}

func TestDaemon_NilArchives(t *testing.T) {
	store := &stubStore{expired: []string{"orders"}}
	d := NewDaemon(DefaultConfig(), store, nil, nil)

	d.RunOnce(context.Background())

	if store.sweepCount() != 1 {
		t.Fatalf("expected sweep to run without archive storage, got %d sweeps", store.sweepCount())
	}
}

func TestDaemon_StartRunsImmediatelyAndStops(t *testing.T) {
	store := &stubStore{expired: []string{"orders"}}
	archives := &stubArchives{}
	d := NewDaemon(Config{TTL: time.Hour, CheckInterval: time.Hour}, store, archives, nil)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail while running")
	}

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	// Stop waits for the loop to exit, so the initial sweep has completed.
	if store.sweepCount() != 1 {
		t.Errorf("expected exactly the startup sweep, got %d", store.sweepCount())
	}
	if len(archives.deletedNames()) != 1 {
		t.Errorf("expected startup sweep to clean archives, got %v", archives.deletedNames())
	}

	// Stopping twice is harmless, and the daemon can be restarted.
	if err := d.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Fatalf("Stop after restart failed: %v", err)
	}
}

func TestDaemon_TickerSweeps(t *testing.T) {
	store := &stubStore{}
	d := NewDaemon(Config{TTL: time.Hour, CheckInterval: 10 * time.Millisecond}, store, nil, nil)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if err := d.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if store.sweepCount() < 2 {
		t.Errorf("expected ticker to trigger repeat sweeps, got %d", store.sweepCount())
	}
}

func TestNewDaemonAppliesDefaults(t *testing.T) {
	d := NewDaemon(Config{}, &stubStore{}, nil, nil)
	if d.config.TTL != 30*24*time.Hour {
		t.Errorf("expected default ttl, got %s", d.config.TTL)
	}
	if d.config.CheckInterval != time.Hour {
		t.Errorf("expected default check interval, got %s", d.config.CheckInterval)
	}
}
