package state

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"eomonitor/lib/scrapers/whitehouse"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSelectNew(t *testing.T) {
	history := NewHistory()
	history.MarkProcessed("seen-1")
	history.MarkProcessed("seen-2")

	candidates := []whitehouse.Order{
		{Id: "seen-1", DateStr: "2024-02-01"},
		{Id: "fresh-1", DateStr: "2024-01-15"},
		{Id: "seen-2", DateStr: "2024-02-02"},
		{Id: "fresh-2", DateStr: "2024-03-01"},
	}

	fresh := history.SelectNew(candidates)
	require.Len(t, fresh, 2)
	for _, order := range fresh {
		require.False(t, history.IsProcessed(order.Id))
	}

	// same inputs, same answer, no mutation
	again := history.SelectNew(candidates)
	if diff := cmp.Diff(fresh, again); diff != "" {
		t.Fatalf("select is not idempotent:\n%s", diff)
	}
}

func TestSelectNewSortOrder(t *testing.T) {
	history := NewHistory()
	candidates := []whitehouse.Order{
		{Id: "b", DateStr: ""},
		{Id: "c", DateStr: "2024-01-15"},
		{Id: "a", DateStr: "2024-03-01"},
	}

	fresh := history.SelectNew(candidates)
	require.Len(t, fresh, 3)
	require.Equal(t, "2024-03-01", fresh[0].DateStr)
	require.Equal(t, "2024-01-15", fresh[1].DateStr)
	// an order without a date always lands last under the
	// descending lexicographic sort
	require.Equal(t, "", fresh[2].DateStr)
}

func TestMarkIdempotence(t *testing.T) {
	history := NewHistory()
	history.MarkProcessed("dup")
	history.MarkProcessed("dup")
	history.MarkPosted("dup")
	history.MarkPosted("dup")

	require.Equal(t, 1, history.Stats().TotalProcessed)
	require.Equal(t, 1, history.Stats().TotalPosted)
}

func TestShouldSkip(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, tt := range []struct {
		name      string
		lastCheck string
		skip      bool
	}{
		{"cold start", "", false},
		{"23h ago", now.Add(-23 * time.Hour).Format(time.RFC3339), true},
		{"25h ago", now.Add(-25 * time.Hour).Format(time.RFC3339), false},
		{"garbage timestamp", "not a timestamp", false},
		{"legacy layout without zone", now.Add(-time.Hour).Format("2006-01-02T15:04:05"), true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			history := NewHistory()
			history.LastCheck = tt.lastCheck
			require.Equal(t, tt.skip, history.ShouldSkip(now, 24))
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	history := NewHistory()
	history.MarkProcessed("order-1")
	history.MarkProcessed("order-2")
	history.MarkPosted("order-1")
	history.SetLastOrderDate("2024-03-01")

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	err := Save(ctx, store, history, now)
	if err != nil {
		t.Fatal(err)
	}

	loaded := Load(ctx, store)
	require.True(t, loaded.IsProcessed("order-1"))
	require.True(t, loaded.IsProcessed("order-2"))
	require.True(t, loaded.IsPosted("order-1"))
	require.False(t, loaded.IsPosted("order-2"))
	require.Equal(t, "2024-03-01", loaded.LastOrderDate)
	require.Equal(t, "2024-06-01T12:00:00Z", loaded.LastCheck)
}

func TestSaveStampsVersion(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	err := Save(ctx, store, NewHistory(), time.Now())
	if err != nil {
		t.Fatal(err)
	}

	blob, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var p persistedHistory
	err = json.Unmarshal(blob, &p)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, Version, p.Version)
	require.NotEmpty(t, p.LastCheck)
}

type memStore struct {
	blob []byte
}

func (s *memStore) Load(ctx context.Context) ([]byte, error) { return s.blob, nil }
func (s *memStore) Save(ctx context.Context, blob []byte) error {
	s.blob = blob
	return nil
}

func TestLoadMergesNarrowerBlob(t *testing.T) {
	// a blob from an older schema that only knows about processed ids
	store := &memStore{blob: []byte(`{"processed_orders":["old-1"]}`)}

	history := Load(context.Background(), store)
	require.True(t, history.IsProcessed("old-1"))
	require.Equal(t, 0, history.Stats().TotalPosted)
	require.Equal(t, "", history.LastCheck)
	require.Equal(t, "", history.LastOrderDate)
}

func TestLoadCorruptBlob(t *testing.T) {
	store := &memStore{blob: []byte(`{{{not json`)}

	history := Load(context.Background(), store)
	require.Equal(t, 0, history.Stats().TotalProcessed)
	require.False(t, history.ShouldSkip(time.Now(), 24))
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	blob, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	require.Nil(t, blob)
}
