// Package upload drives a spreadsheet upload from file selection through
// parsing, column validation and the store write.
package upload

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/nconklindev/warrantor/internal/columns"
	"github.com/nconklindev/warrantor/internal/converter"
	"github.com/nconklindev/warrantor/internal/types"

	"go.uber.org/zap"
)

type Status int

const (
	StatusIdle Status = iota
	StatusUploading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusUploading:
		return "uploading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

var (
	// ErrNoData is returned when the sheet has a header but no data rows.
	ErrNoData = errors.New("no data found in the Excel file")

	// ErrInProgress is returned when Upload is called while another upload
	// on the same controller has not finished.
	ErrInProgress = errors.New("an upload is already in progress")
)

// MissingColumnsError lists expected labels the uploaded sheet lacks.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// Writer is the part of the store the controller needs.
type Writer interface {
	Write(c types.Collection, records []types.Record) error
}

// Controller runs uploads into one collection. The store is written exactly
// when an upload ends in StatusSuccess.
type Controller struct {
	store      Writer
	collection types.Collection
	expected   []string
	onComplete func([]types.Record)
	logger     *zap.Logger

	mu      sync.Mutex
	status  Status
	err     error
	records []types.Record
}

type Option func(*Controller)

// WithOnComplete registers a callback invoked with the parsed records after a
// successful store write. It is how the uploading view learns of its own
// change.
func WithOnComplete(fn func([]types.Record)) Option {
	return func(c *Controller) { c.onComplete = fn }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func NewController(store Writer, collection types.Collection, expected []string, opts ...Option) *Controller {
	c := &Controller{
		store:      store,
		collection: collection,
		expected:   expected,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Expected returns the labels uploads are validated against.
func (c *Controller) Expected() []string {
	return c.expected
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the error of the last upload when Status is StatusError.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Records returns the records of the last successful upload.
func (c *Controller) Records() []types.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records
}

// Reset returns a finished controller to StatusIdle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusUploading {
		return
	}
	c.status = StatusIdle
	c.err = nil
}

// UploadFile parses and stores the spreadsheet at path.
func (c *Controller) UploadFile(path string) (*types.UploadResult, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}

	c.logger.Info("Upload started",
		zap.String("file", filepath.Base(path)),
		zap.String("collection", string(c.collection)))

	records, err := converter.ParseFile(path)
	return c.finish(path, records, err)
}

// Upload parses and stores a spreadsheet read from r. name is only used in
// the result and logs.
func (c *Controller) Upload(name string, r io.Reader) (*types.UploadResult, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}

	c.logger.Info("Upload started",
		zap.String("file", name),
		zap.String("collection", string(c.collection)))

	records, err := converter.Parse(r)
	return c.finish(name, records, err)
}

func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusUploading {
		return ErrInProgress
	}
	c.status = StatusUploading
	c.err = nil
	return nil
}

func (c *Controller) finish(name string, records []types.Record, err error) (*types.UploadResult, error) {
	if err != nil {
		return nil, c.fail(name, err)
	}

	c.logger.Debug("Spreadsheet parsed", zap.Int("records", len(records)))

	if len(records) == 0 {
		return nil, c.fail(name, ErrNoData)
	}

	if missing := columns.Validate(records, c.expected); len(missing) > 0 {
		return nil, c.fail(name, &MissingColumnsError{Columns: missing})
	}

	if err := c.store.Write(c.collection, records); err != nil {
		return nil, c.fail(name, err)
	}

	c.mu.Lock()
	c.status = StatusSuccess
	c.records = records
	c.mu.Unlock()

	c.logger.Info("Upload completed",
		zap.String("file", filepath.Base(name)),
		zap.String("collection", string(c.collection)),
		zap.Int("records", len(records)))

	if c.onComplete != nil {
		c.onComplete(records)
	}

	return &types.UploadResult{
		InputFile:    name,
		Collection:   c.collection,
		ColumnsFound: slices.Sorted(maps.Keys(records[0])),
		Records:      records,
	}, nil
}

func (c *Controller) fail(name string, err error) error {
	c.mu.Lock()
	c.status = StatusError
	c.err = err
	c.mu.Unlock()

	c.logger.Warn("Upload failed",
		zap.String("file", filepath.Base(name)),
		zap.String("collection", string(c.collection)),
		zap.Error(err))
	return err
}
