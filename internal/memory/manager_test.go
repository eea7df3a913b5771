package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"jack/internal/types"
)

func testManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewManager(store, opts...)
}

func recordN(m *Manager, clientID string, n int) {
	for i := 0; i < n; i++ {
		m.RecordIntent(clientID, types.ParsedIntent{
			ID:     fmt.Sprintf("i%d", i),
			Action: "get_time",
		}, i)
	}
}

func TestRecentIntentsNewestFirst(t *testing.T) {
	m := testManager(t)
	recordN(m, "c1", 2)

	recent := m.RecentIntents("c1")
	if len(recent) != 2 {
		t.Fatalf("got %d entries, want 2", len(recent))
	}
	if recent[0].Intent.ID != "i1" || recent[1].Intent.ID != "i0" {
		t.Errorf("order = [%s %s], want newest first", recent[0].Intent.ID, recent[1].Intent.ID)
	}
}

func TestRecentIntentsCapEvictsOldest(t *testing.T) {
	m := testManager(t)
	recordN(m, "c1", 4)

	recent := m.RecentIntents("c1")
	if len(recent) != 3 {
		t.Fatalf("got %d entries, want cap of 3", len(recent))
	}
	for _, e := range recent {
		if e.Intent.ID == "i0" {
			t.Error("oldest entry should have been evicted")
		}
	}
}

func TestRecentIntentsLazyExpiry(t *testing.T) {
	m := testManager(t)

	now := time.Now()
	m.now = func() time.Time { return now }
	m.RecordIntent("c1", types.ParsedIntent{ID: "i1", Action: "get_time"}, nil)

	if got := len(m.RecentIntents("c1")); got != 1 {
		t.Fatalf("fresh entry missing, got %d", got)
	}

	// Reads 61s later see nothing; the entry is filtered, not swept.
	m.now = func() time.Time { return now.Add(61 * time.Second) }
	if got := len(m.RecentIntents("c1")); got != 0 {
		t.Fatalf("expired entry still visible, got %d", got)
	}
}

func TestRecentIntentsPerClientIsolation(t *testing.T) {
	m := testManager(t)
	recordN(m, "c1", 1)

	if got := len(m.RecentIntents("c2")); got != 0 {
		t.Errorf("client c2 sees %d foreign entries", got)
	}
}

func TestActiveResourceLastWriteWins(t *testing.T) {
	m := testManager(t)

	m.SetActiveResource("c1", types.ActiveResource{Type: types.ResourceFile, Path: "/tmp/a"})
	m.SetActiveResource("c1", types.ActiveResource{Type: types.ResourceProject, Path: "/tmp/b"})

	res, ok := m.ActiveResource("c1")
	if !ok {
		t.Fatal("active resource missing")
	}
	if res.Type != types.ResourceProject || res.Path != "/tmp/b" {
		t.Errorf("got %+v, want the later write", res)
	}
	if res.ActivatedAt.IsZero() {
		t.Error("ActivatedAt should be stamped")
	}

	m.ClearActiveResource("c1")
	if _, ok := m.ActiveResource("c1"); ok {
		t.Error("resource should be cleared")
	}
}

func TestSnapshotMergesAllTiers(t *testing.T) {
	m := testManager(t)

	if err := m.Memory().Set("user.name", "Jack"); err != nil {
		t.Fatal(err)
	}
	if err := m.Memory().Set("preferences.theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if err := m.Memory().Set("other.ignored", true); err != nil {
		t.Fatal(err)
	}

	m.RecordIntent("c1", types.ParsedIntent{ID: "i1", Action: "get_time"}, "14:00")
	m.SetActiveResource("c1", types.ActiveResource{Type: types.ResourceFile, Path: "/tmp/notes.md"})

	snap, err := m.Snapshot(context.Background(), "c1", []string{"user", "preferences"})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if snap.ClientID != "c1" {
		t.Errorf("ClientID = %q", snap.ClientID)
	}
	if len(snap.RecentIntents) != 1 || snap.RecentIntents[0].Intent.ID != "i1" {
		t.Errorf("RecentIntents = %+v", snap.RecentIntents)
	}
	if snap.ActiveResource == nil || snap.ActiveResource.Path != "/tmp/notes.md" {
		t.Errorf("ActiveResource = %+v", snap.ActiveResource)
	}

	wantMemory := map[string]any{
		"user.name":         "Jack",
		"preferences.theme": "dark",
	}
	if diff := cmp.Diff(wantMemory, snap.Memory); diff != "" {
		t.Errorf("Memory mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotWithoutStore(t *testing.T) {
	m := NewManager(nil)

	snap, err := m.Snapshot(context.Background(), "c1", []string{"user"})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Memory != nil {
		t.Errorf("Memory = %+v, want nil without a store", snap.Memory)
	}
}

func TestClearClientPreservesLongTerm(t *testing.T) {
	m := testManager(t)

	if err := m.Memory().Set("user.name", "Jack"); err != nil {
		t.Fatal(err)
	}
	recordN(m, "c1", 1)
	m.SetActiveResource("c1", types.ActiveResource{Type: types.ResourceFile, Path: "/tmp/a"})

	m.ClearClient("c1")

	if got := len(m.RecentIntents("c1")); got != 0 {
		t.Errorf("short-term survived clearClient: %d entries", got)
	}
	if _, ok := m.ActiveResource("c1"); ok {
		t.Error("session slot survived clearClient")
	}
	value, found, err := m.Memory().Get("user.name")
	if err != nil || !found || value != "Jack" {
		t.Errorf("long-term memory was touched: value=%v found=%v err=%v", value, found, err)
	}
}

func TestCustomCapAndTTL(t *testing.T) {
	m := testManager(t, WithRecentCap(1), WithRecentTTL(10*time.Second))
	recordN(m, "c1", 2)

	recent := m.RecentIntents("c1")
	if len(recent) != 1 || recent[0].Intent.ID != "i1" {
		t.Errorf("got %+v, want only the newest entry", recent)
	}
}
