package cartstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	d "github.com/farmeazy/farmgate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, bus *Bus) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), bus)
	require.NoError(t, err)
	return store
}

func TestFileStore_LoadEmptyWhenAbsent(t *testing.T) {
	store := newTestStore(t, nil)

	lines, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.NotNil(t, lines)
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	want := []d.CartLine{
		{ProductID: "prod-1", ProductName: "Wheat Seeds", UnitPrice: 250, Quantity: 2, AvailableQuantity: 8, SellerID: "farm-9", Category: "seeds"},
	}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStore_CorruptPayloadReadsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, cartFileName), []byte("{not json"), 0o644))

	lines, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFileStore_Clear(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []d.CartLine{{ProductID: "p", UnitPrice: 1, Quantity: 1, AvailableQuantity: 1}}))
	require.NoError(t, store.Clear(ctx))

	lines, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Clearing an already empty store is not an error.
	require.NoError(t, store.Clear(ctx))
}

func TestFileStore_PublishesChangeEvents(t *testing.T) {
	bus := NewBus()
	store := newTestStore(t, bus)
	ctx := context.Background()

	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	require.NoError(t, store.Save(ctx, []d.CartLine{{ProductID: "p", UnitPrice: 5, Quantity: 2, AvailableQuantity: 4}}))
	require.NoError(t, store.Clear(ctx))

	saved := <-events
	assert.Equal(t, EventSaved, saved.Type)
	assert.Equal(t, 1, saved.LineCount)

	cleared := <-events
	assert.Equal(t, EventCleared, cleared.Type)
}

func TestFileStore_CoinSelectionHandoff(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	// Unset selection reads as zero value.
	sel, err := store.LoadCoinSelection(ctx)
	require.NoError(t, err)
	assert.False(t, sel.UseCoins)

	require.NoError(t, store.SaveCoinSelection(ctx, d.CoinSelection{UseCoins: true, CoinsToUse: 42}))

	sel, err = store.LoadCoinSelection(ctx)
	require.NoError(t, err)
	assert.True(t, sel.UseCoins)
	assert.Equal(t, 42, sel.CoinsToUse)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	unsubscribe()

	bus.Publish(Event{Type: EventSaved, LineCount: 3})

	_, open := <-events
	assert.False(t, open)
}
