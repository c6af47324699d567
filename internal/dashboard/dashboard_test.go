package dashboard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nconklindev/warrantor/internal/converter"
	"github.com/nconklindev/warrantor/internal/store"
	"github.com/nconklindev/warrantor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newDashboard(t *testing.T) (*Dashboard, *store.Store, string) {
	t.Helper()

	s := store.New(store.NewMemoryBackend(), store.NewHub(), nil)
	dir := filepath.Join(t.TempDir(), "exports")
	d := New(s, dir, nil)
	d.now = func() time.Time { return time.Date(2026, 10, 15, 23, 30, 0, 0, time.UTC) }
	return d, s, dir
}

func TestCounts(t *testing.T) {
	d, s, _ := newDashboard(t)

	counts, err := d.Counts()
	require.NoError(t, err)
	assert.Equal(t, types.Counts{}, counts)

	require.NoError(t, s.Write(types.CollectionCustomer, []types.Record{{}, {}, {}}))
	require.NoError(t, s.Write(types.CollectionClaim, []types.Record{{}}))

	counts, err = d.Counts()
	require.NoError(t, err)
	assert.Equal(t, types.Counts{Customers: 3, Warranties: 0, Claims: 1}, counts)
}

func TestFileName(t *testing.T) {
	day := time.Date(2026, 3, 9, 1, 0, 0, 0, time.FixedZone("EST", -5*3600))

	assert.Equal(t, "warranties_2026-03-09.xlsx", FileName(types.KindWarranty, day))
	// the date is taken in UTC
	assert.Equal(t, "claims_2026-03-09.xlsx", FileName(types.KindClaims, day))
	assert.Equal(t, "claims_2026-03-10.xlsx", FileName(types.KindClaims, day.Add(20*time.Hour)))
}

func TestExport_Empty(t *testing.T) {
	d, _, dir := newDashboard(t)

	res, err := d.Export(types.KindWarranty)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNothingToDownload)
	assert.EqualError(t, err, "no warranty data to download")

	_, statErr := os.Stat(dir)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no file or directory should be created")
}

func TestExport(t *testing.T) {
	d, s, dir := newDashboard(t)

	warranties := []types.Record{
		{"Warranty ID": "W-1", "Order ID": "1001", "Status": "Active"},
		{"Warranty ID": "W-2", "Order ID": "1002", "Status": "Active"},
	}
	require.NoError(t, s.Write(types.CollectionWarranty, warranties))

	res, err := d.Export(types.KindWarranty)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "warranties_2026-10-15.xlsx"), res.OutputFile)
	assert.Equal(t, 2, res.Records)
	assert.Positive(t, res.Bytes)

	parsed, err := converter.ParseFile(res.OutputFile)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, "W-2", parsed[1]["Warranty ID"])
	assert.Equal(t, "", parsed[1]["Expiry Date"])
}

func TestExport_UnknownKind(t *testing.T) {
	d, _, _ := newDashboard(t)

	_, err := d.Export(types.Kind("orders"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNothingToDownload))
}

func TestExportAll(t *testing.T) {
	d, s, dir := newDashboard(t)

	results, err := d.ExportAll()
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, s.Write(types.CollectionClaim, []types.Record{{"Claim ID": "C-1"}}))

	results, err = d.ExportAll()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.KindClaims, results[0].Kind)
	assert.FileExists(t, filepath.Join(dir, "claims_2026-10-15.xlsx"))

	require.NoError(t, s.Write(types.CollectionWarranty, []types.Record{{"Warranty ID": "W-1"}}))

	results, err = d.ExportAll()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, types.KindWarranty, results[0].Kind)
	assert.Equal(t, types.KindClaims, results[1].Kind)
}

func TestSnapshot(t *testing.T) {
	d, s, _ := newDashboard(t)
	require.NoError(t, s.Write(types.CollectionCustomer, []types.Record{{"Order ID": "1"}}))

	snap, err := d.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap, 3)
	assert.Len(t, snap[types.CollectionCustomer], 1)
	assert.Empty(t, snap[types.CollectionWarranty])
}

func TestSnapshot_LogsAtDebugLevel(t *testing.T) {
	s := store.New(store.NewMemoryBackend(), store.NewHub(), nil)
	require.NoError(t, s.Write(types.CollectionCustomer, []types.Record{{"Email": "alice@example.com"}}))

	core, logs := observer.New(zapcore.DebugLevel)
	d := New(s, t.TempDir(), zap.New(core))

	snap, err := d.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap[types.CollectionCustomer], 1)

	entries := logs.FilterMessage("Debug snapshot").All()
	require.Len(t, entries, len(types.Collections))
	for _, e := range entries {
		assert.Equal(t, zapcore.DebugLevel, e.Level)
	}
}
