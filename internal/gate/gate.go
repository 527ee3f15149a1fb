// Package gate implements two-level admission control for outbound requests:
// a global in-flight ceiling plus a ceiling per destination host.
package gate

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Config holds gate capacities.
type Config struct {
	GlobalLimit  int
	PerHostLimit int
}

// DefaultConfig mirrors the crawler's stock limits.
func DefaultConfig() Config {
	return Config{GlobalLimit: 256, PerHostLimit: 8}
}

// Gate bounds concurrent requests globally and per host. Admission blocks
// until both budgets have capacity; tickets must be released on every exit
// path.
type Gate struct {
	global       *semaphore.Weighted
	perHostLimit int64

	mu    sync.Mutex
	hosts map[string]*hostSlot
}

// hostSlot is created lazily and dropped once no ticket references it, so a
// long-running process does not accumulate an entry per host ever contacted.
type hostSlot struct {
	sem  *semaphore.Weighted
	refs int
}

// Ticket represents one admitted request. Release is idempotent.
type Ticket struct {
	gate *Gate
	host string
	once sync.Once
}

// New builds a Gate, falling back to defaults for non-positive limits.
func New(cfg Config) *Gate {
	if cfg.GlobalLimit <= 0 {
		cfg.GlobalLimit = DefaultConfig().GlobalLimit
	}
	if cfg.PerHostLimit <= 0 {
		cfg.PerHostLimit = DefaultConfig().PerHostLimit
	}
	return &Gate{
		global:       semaphore.NewWeighted(int64(cfg.GlobalLimit)),
		perHostLimit: int64(cfg.PerHostLimit),
		hosts:        make(map[string]*hostSlot),
	}
}

// Acquire blocks until both the global and the per-host budget for the URL's
// host admit one more request, then returns a Ticket. A cancelled context
// aborts the wait with the context's error.
func (g *Gate) Acquire(ctx context.Context, rawURL string) (*Ticket, error) {
	host := HostKey(rawURL)

	slot := g.retainHost(host)
	if err := slot.sem.Acquire(ctx, 1); err != nil {
		g.releaseHost(host, false)
		return nil, fmt.Errorf("acquire host slot %q: %w", host, err)
	}
	if err := g.global.Acquire(ctx, 1); err != nil {
		slot.sem.Release(1)
		g.releaseHost(host, false)
		return nil, fmt.Errorf("acquire global slot: %w", err)
	}
	return &Ticket{gate: g, host: host}, nil
}

// Release returns both slots. Safe to call more than once.
func (t *Ticket) Release() {
	if t == nil || t.gate == nil {
		return
	}
	t.once.Do(func() {
		t.gate.global.Release(1)
		t.gate.releaseHost(t.host, true)
	})
}

func (g *Gate) retainHost(host string) *hostSlot {
	g.mu.Lock()
	defer g.mu.Unlock()
	slot, ok := g.hosts[host]
	if !ok {
		slot = &hostSlot{sem: semaphore.NewWeighted(g.perHostLimit)}
		g.hosts[host] = slot
	}
	slot.refs++
	return slot
}

func (g *Gate) releaseHost(host string, admitted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	slot, ok := g.hosts[host]
	if !ok {
		return
	}
	if admitted {
		slot.sem.Release(1)
	}
	slot.refs--
	if slot.refs <= 0 {
		delete(g.hosts, host)
	}
}

// trackedHosts reports how many per-host entries are currently retained.
func (g *Gate) trackedHosts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.hosts)
}

// HostKey normalizes a URL to the key used for per-host accounting: the
// lowercased hostname with scheme and port stripped, so http://x and
// https://x count against the same budget.
func HostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}
