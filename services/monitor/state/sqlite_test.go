package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSqliteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	store, err := OpenSqliteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	blob, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.Nil(t, blob)

	history := NewHistory()
	history.MarkProcessed("order-1")
	history.MarkPosted("order-1")

	err = Save(ctx, store, history, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	loaded := Load(ctx, store)
	require.True(t, loaded.IsProcessed("order-1"))
	require.True(t, loaded.IsPosted("order-1"))

	// saving again overwrites the single row instead of growing
	err = Save(ctx, store, loaded, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, Load(ctx, store).IsProcessed("order-1"))
}
