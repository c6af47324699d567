package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nconklindev/warrantor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	fb, err := NewFileBackend(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	sb, err := NewSQLiteBackend(":memory:")
	require.NoError(t, err)

	all := map[string]Backend{
		BackendMemory: NewMemoryBackend(),
		BackendFile:   fb,
		BackendSQLite: sb,
	}
	t.Cleanup(func() {
		for _, b := range all {
			b.Close()
		}
	})
	return all
}

func TestStore_ReadWrite(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(backend, NewHub(), nil)

			got, err := s.Read(types.CollectionCustomer)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)

			records := []types.Record{
				{"Order ID": "1001", "Email": "alice@example.com"},
				{"Order ID": "1002", "Email": "bob@example.com"},
			}
			require.NoError(t, s.Write(types.CollectionCustomer, records))

			got, err = s.Read(types.CollectionCustomer)
			require.NoError(t, err)
			assert.Equal(t, records, got)

			// a second write replaces the collection
			require.NoError(t, s.Write(types.CollectionCustomer, records[:1]))
			got, err = s.Read(types.CollectionCustomer)
			require.NoError(t, err)
			assert.Len(t, got, 1)

			require.NoError(t, s.Clear(types.CollectionCustomer))
			got, err = s.Read(types.CollectionCustomer)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestStore_CollectionsAreIndependent(t *testing.T) {
	s := New(NewMemoryBackend(), NewHub(), nil)

	require.NoError(t, s.Write(types.CollectionWarranty, []types.Record{{"Warranty ID": "W-1"}}))
	require.NoError(t, s.Write(types.CollectionCustomer, []types.Record{{"Order ID": "1"}, {"Order ID": "2"}}))

	warranties, err := s.Read(types.CollectionWarranty)
	require.NoError(t, err)
	assert.Len(t, warranties, 1)

	claims, err := s.Read(types.CollectionClaim)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestStore_NilWriteStoresEmptyArray(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend, NewHub(), nil)

	require.NoError(t, s.Write(types.CollectionClaim, nil))

	raw, ok, err := backend.Get("claimData")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestStore_UnknownCollection(t *testing.T) {
	s := New(NewMemoryBackend(), NewHub(), nil)

	_, err := s.Read(types.Collection("orders"))
	assert.Error(t, err)
	assert.Error(t, s.Write(types.Collection("orders"), nil))
}

func TestStore_CorruptPayload(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Put("warrantyData", []byte("{not json")))

	s := New(backend, NewHub(), nil)
	_, err := s.Read(types.CollectionWarranty)
	assert.Error(t, err)
}

func TestStore_SubscribeSkipsWriter(t *testing.T) {
	writer := New(NewMemoryBackend(), NewHub(), nil)
	other := writer.Handle()

	var own, seen []Event
	writer.Subscribe(types.CollectionCustomer, func(ev Event) { own = append(own, ev) })
	other.Subscribe(types.CollectionCustomer, func(ev Event) { seen = append(seen, ev) })

	records := []types.Record{{"Order ID": "1"}}
	require.NoError(t, writer.Write(types.CollectionCustomer, records))

	assert.Empty(t, own)
	require.Len(t, seen, 1)
	assert.Equal(t, "customerData", seen[0].Key)
	assert.Equal(t, writer.Origin(), seen[0].Origin)

	var decoded []types.Record
	require.NoError(t, json.Unmarshal([]byte(seen[0].NewValue), &decoded))
	assert.Equal(t, records, decoded)

	// the other handle sees the write through the shared backend
	got, err := other.Read(types.CollectionCustomer)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestStore_SubscribeFiltersCollection(t *testing.T) {
	writer := New(NewMemoryBackend(), NewHub(), nil)
	other := writer.Handle()

	calls := 0
	other.Subscribe(types.CollectionClaim, func(Event) { calls++ })

	require.NoError(t, writer.Write(types.CollectionCustomer, nil))
	assert.Equal(t, 0, calls)

	require.NoError(t, writer.Write(types.CollectionClaim, nil))
	assert.Equal(t, 1, calls)
}

func TestStore_Unsubscribe(t *testing.T) {
	writer := New(NewMemoryBackend(), NewHub(), nil)
	other := writer.Handle()

	calls := 0
	cancel := other.Subscribe(types.CollectionCustomer, func(Event) { calls++ })
	cancel()
	cancel()

	require.NoError(t, writer.Write(types.CollectionCustomer, nil))
	assert.Equal(t, 0, calls)
}

func TestStore_ClearPublishesEmptyValue(t *testing.T) {
	writer := New(NewMemoryBackend(), NewHub(), nil)
	other := writer.Handle()

	var seen []Event
	other.Subscribe(types.CollectionWarranty, func(ev Event) { seen = append(seen, ev) })

	require.NoError(t, writer.Clear(types.CollectionWarranty))
	require.Len(t, seen, 1)
	assert.Equal(t, "", seen[0].NewValue)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(BackendSQLite, dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Write(types.CollectionClaim, []types.Record{{"Claim ID": "C-1"}}))
	require.NoError(t, s.Close())

	_, err = os.Stat(filepath.Join(dir, "warrantor.db"))
	require.NoError(t, err)

	reopened, err := Open(BackendSQLite, dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Read(types.CollectionClaim)
	require.NoError(t, err)
	assert.Equal(t, []types.Record{{"Claim ID": "C-1"}}, got)

	_, err = Open("redis", dir, nil)
	assert.Error(t, err)
}

func TestOpen_FileWatchesOtherProcesses(t *testing.T) {
	dir := t.TempDir()

	a, err := Open(BackendFile, dir, nil)
	require.NoError(t, err)
	defer a.Close()

	b, err := Open(BackendFile, dir, nil)
	require.NoError(t, err)
	defer b.Close()

	own := make(chan Event, 4)
	seen := make(chan Event, 4)
	a.Subscribe(types.CollectionCustomer, func(ev Event) { own <- ev })
	b.Subscribe(types.CollectionCustomer, func(ev Event) { seen <- ev })

	require.NoError(t, a.Write(types.CollectionCustomer, []types.Record{{"Order ID": "1"}}))

	select {
	case ev := <-seen:
		assert.Equal(t, ExternalOrigin, ev.Origin)
		assert.Equal(t, "customerData", ev.Key)
		assert.Contains(t, ev.NewValue, `"Order ID":"1"`)
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered to the other store")
	}

	select {
	case ev := <-own:
		t.Fatalf("writer received its own change: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileBackend_FailedWriteForgetsChecksum(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	defer b.Close()

	// a directory in the way makes the rename fail
	target := filepath.Join(dir, "customerData.json")
	require.NoError(t, os.Mkdir(target, 0o755))

	payload := []byte(`[{"Order ID":"1"}]`)
	assert.Error(t, b.Put("customerData", payload))

	_, ok := b.checksum("customerData")
	assert.False(t, ok)

	// the same content written by another process is still a change
	require.NoError(t, os.Remove(target))
	assert.True(t, b.remember("customerData", payload))
}

func TestFileBackend_RestoreChecksum(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Put("claimData", []byte(`[]`)))
	prev, ok := b.checksum("claimData")
	require.True(t, ok)

	b.remember("claimData", []byte(`[{"Claim ID":"C-1"}]`))
	b.restore("claimData", prev, true)

	got, _ := b.checksum("claimData")
	assert.Equal(t, prev, got)
	assert.False(t, b.remember("claimData", []byte(`[]`)))
}
