// Package memory implements JACK's three-tier Context Manager:
// a per-client short-term intent cache, a per-client session slot for
// the active resource, and a global persisted key-value store.
// The three tiers have independent lifecycles behind one facade.
package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"jack/internal/logging"
	"jack/internal/types"
)

// Defaults for the short-term tier: keep the last three intents, each
// visible for one minute.
const (
	DefaultRecentCap = 3
	DefaultRecentTTL = 60 * time.Second
)

// Manager is the Context Manager facade.
type Manager struct {
	mu        sync.RWMutex
	recent    map[string][]types.RecentIntent // per client, newest first
	resources map[string]*types.ActiveResource

	store *Store

	recentCap int
	recentTTL time.Duration
	now       func() time.Time
}

// Option tweaks Manager construction.
type Option func(*Manager)

// WithRecentCap overrides the short-term ring size.
func WithRecentCap(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.recentCap = n
		}
	}
}

// WithRecentTTL overrides the short-term entry lifetime.
func WithRecentTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.recentTTL = d
		}
	}
}

// NewManager creates a Context Manager over the given long-term store.
// The store may be nil when long-term memory is disabled (snapshots
// then carry no memory section).
func NewManager(store *Store, opts ...Option) *Manager {
	m := &Manager{
		recent:    make(map[string][]types.RecentIntent),
		resources: make(map[string]*types.ActiveResource),
		store:     store,
		recentCap: DefaultRecentCap,
		recentTTL: DefaultRecentTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Memory returns the long-term store (may be nil).
func (m *Manager) Memory() *Store { return m.store }

// =============================================================================
// SHORT-TERM TIER
// =============================================================================

// RecordIntent pushes an executed intent into the client's short-term
// cache. Adding beyond the cap evicts the oldest entry.
func (m *Manager) RecordIntent(clientID string, intent types.ParsedIntent, result any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := types.RecentIntent{
		Intent:    intent,
		Result:    result,
		Timestamp: m.now(),
	}
	entries := append([]types.RecentIntent{entry}, m.recent[clientID]...)
	if len(entries) > m.recentCap {
		entries = entries[:m.recentCap]
	}
	m.recent[clientID] = entries
	logging.ContextDebug("recordIntent client=%s action=%s cached=%d", clientID, intent.Action, len(entries))
}

// RecentIntents returns the client's unexpired entries, newest first.
// Expiry is lazy: stale entries are filtered on every read, never
// proactively swept.
func (m *Manager) RecentIntents(clientID string) []types.RecentIntent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := m.now().Add(-m.recentTTL)
	var live []types.RecentIntent
	for _, e := range m.recent[clientID] {
		if e.Timestamp.After(cutoff) {
			live = append(live, e)
		}
	}
	return live
}

// ClearRecentIntents drops the client's short-term cache.
func (m *Manager) ClearRecentIntents(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recent, clientID)
}

// =============================================================================
// SESSION TIER
// =============================================================================

// SetActiveResource records what the client is focused on.
// One slot per client; last write wins.
func (m *Manager) SetActiveResource(clientID string, res types.ActiveResource) {
	if res.ActivatedAt.IsZero() {
		res.ActivatedAt = m.now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[clientID] = &res
	logging.ContextDebug("setActiveResource client=%s type=%s path=%s", clientID, res.Type, res.Path)
}

// ActiveResource returns the client's current focus, if any.
func (m *Manager) ActiveResource(clientID string) (*types.ActiveResource, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.resources[clientID]
	return res, ok
}

// ClearActiveResource drops the client's session slot.
func (m *Manager) ClearActiveResource(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.resources, clientID)
}

// =============================================================================
// COMBINED VIEW
// =============================================================================

// Snapshot merges recent intents, the active resource, and the union
// of the requested long-term namespaces into one read-only view for
// the intent parser. Namespace reads fan out concurrently.
func (m *Manager) Snapshot(ctx context.Context, clientID string, namespaces []string) (*types.ContextSnapshot, error) {
	snap := &types.ContextSnapshot{
		ClientID:      clientID,
		RecentIntents: m.RecentIntents(clientID),
	}
	if res, ok := m.ActiveResource(clientID); ok {
		snap.ActiveResource = res
	}

	if m.store == nil || len(namespaces) == 0 {
		return snap, nil
	}

	var (
		memMu  sync.Mutex
		merged = make(map[string]any)
	)
	g, _ := errgroup.WithContext(ctx)
	for _, ns := range namespaces {
		g.Go(func() error {
			entries, err := m.store.Namespace(ns)
			if err != nil {
				return err
			}
			memMu.Lock()
			for k, v := range entries {
				merged[k] = v
			}
			memMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(merged) > 0 {
		snap.Memory = merged
	}
	return snap, nil
}

// ClearClient clears the short-term and session tiers for a client.
// Long-term memory is explicitly preserved across disconnects: it is
// user profile data, not session state.
func (m *Manager) ClearClient(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recent, clientID)
	delete(m.resources, clientID)
	logging.Session("clearClient %s (short-term and session state dropped)", clientID)
}
