package dashboard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nconklindev/warrantor/internal/converter"
	"github.com/nconklindev/warrantor/internal/types"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNothingToDownload matches the error Export returns for an empty
// collection.
var ErrNothingToDownload = errors.New("no data to download")

// EmptyError names the empty collection an export was asked for.
type EmptyError struct {
	Collection types.Collection
}

func (e *EmptyError) Error() string {
	return fmt.Sprintf("no %s data to download", e.Collection)
}

func (e *EmptyError) Is(target error) bool {
	return target == ErrNothingToDownload
}

// Reader is the part of the record store the dashboard needs.
type Reader interface {
	Read(c types.Collection) ([]types.Record, error)
}

type Dashboard struct {
	store     Reader
	exportDir string
	logger    *zap.Logger
	now       func() time.Time
}

func New(store Reader, exportDir string, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{
		store:     store,
		exportDir: exportDir,
		logger:    logger,
		now:       time.Now,
	}
}

// Counts reads the size of every collection
func (d *Dashboard) Counts() (types.Counts, error) {
	var counts types.Counts
	targets := map[types.Collection]*int{
		types.CollectionCustomer: &counts.Customers,
		types.CollectionWarranty: &counts.Warranties,
		types.CollectionClaim:    &counts.Claims,
	}

	for c, n := range targets {
		records, err := d.store.Read(c)
		if err != nil {
			return types.Counts{}, err
		}
		*n = len(records)
	}
	return counts, nil
}

// FileName returns the download name for kind on the given day.
func FileName(kind types.Kind, day time.Time) string {
	prefix := "warranties"
	if kind == types.KindClaims {
		prefix = "claims"
	}
	return fmt.Sprintf("%s_%s.xlsx", prefix, day.UTC().Format("2006-01-02"))
}

// Export writes the collection behind kind to a spreadsheet in the export
// directory. An empty collection produces no file.
func (d *Dashboard) Export(kind types.Kind) (*types.ExportResult, error) {
	if _, err := converter.Columns(kind); err != nil {
		return nil, err
	}

	records, err := d.store.Read(kind.Collection())
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		d.logger.Info("Export skipped, collection empty", zap.String("kind", string(kind)))
		return nil, &EmptyError{Collection: kind.Collection()}
	}

	data, err := converter.Generate(kind, records)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s spreadsheet: %w", kind, err)
	}

	if err := os.MkdirAll(d.exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	outputFile := filepath.Join(d.exportDir, FileName(kind, d.now()))
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		return nil, err
	}

	d.logger.Info("Export written",
		zap.String("kind", string(kind)),
		zap.String("file", outputFile),
		zap.Int("records", len(records)))

	return &types.ExportResult{
		Kind:       kind,
		OutputFile: outputFile,
		Records:    len(records),
		Bytes:      len(data),
	}, nil
}

// ExportAll exports warranties and claims concurrently, skipping empty
// collections. Results come back in warranty, claims order.
func (d *Dashboard) ExportAll() ([]*types.ExportResult, error) {
	kinds := []types.Kind{types.KindWarranty, types.KindClaims}
	results := make([]*types.ExportResult, len(kinds))

	var g errgroup.Group
	for i, kind := range kinds {
		g.Go(func() error {
			res, err := d.Export(kind)
			if errors.Is(err, ErrNothingToDownload) {
				return nil
			}
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*types.ExportResult
	for _, res := range results {
		if res != nil {
			out = append(out, res)
		}
	}
	return out, nil
}

// Snapshot reads every collection, for the debug view.
func (d *Dashboard) Snapshot() (map[types.Collection][]types.Record, error) {
	snap := make(map[types.Collection][]types.Record, len(types.Collections))
	for _, c := range types.Collections {
		records, err := d.store.Read(c)
		if err != nil {
			return nil, err
		}
		snap[c] = records

		d.logger.Debug("Debug snapshot",
			zap.String("collection", string(c)),
			zap.Int("records", len(snap[c])),
			zap.Any("data", snap[c]))
	}
	return snap, nil
}
