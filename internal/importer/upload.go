package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

const (
	// MaxBatchSize is the largest batch the store accepts in one write.
	MaxBatchSize = 10
	// MinBatchDelay keeps writes under five requests per second.
	MinBatchDelay = 200 * time.Millisecond
)

// BatchWriter is the slice of job.Repository the uploader needs.
type BatchWriter interface {
	CreateBatch(ctx context.Context, records []job.Fields, mergeOn []string) (int, error)
}

// BatchError reports the first failed batch. Rows are 1-based; earlier batches stay written.
type BatchError struct {
	FromRow  int
	ToRow    int
	Imported int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch starting row %d (rows %d-%d): %v", e.FromRow, e.FromRow, e.ToRow, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

type UploadOptions struct {
	BatchSize int
	Delay     time.Duration
	MergeOn   []string
	// Progress is called after each successful batch.
	Progress func(imported, total int)
	// Sleep waits between batches; defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

type Uploader struct {
	writer BatchWriter
	opts   UploadOptions
}

func NewUploader(w BatchWriter, opts UploadOptions) (*Uploader, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = MaxBatchSize
	}
	if opts.BatchSize < 1 || opts.BatchSize > MaxBatchSize {
		return nil, errors.Errorf("batch size must be between 1 and %d, got %d", MaxBatchSize, opts.BatchSize)
	}
	if opts.Delay < MinBatchDelay {
		opts.Delay = MinBatchDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Uploader{writer: w, opts: opts}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Upload writes records in order-preserving batches, pausing between batches
// but not after the last one. It stops at the first failed batch.
func (u *Uploader) Upload(ctx context.Context, records []job.Fields) (int, error) {
	total := len(records)
	imported := 0
	for start := 0; start < total; start += u.opts.BatchSize {
		end := min(start+u.opts.BatchSize, total)
		if start > 0 {
			if err := u.opts.Sleep(ctx, u.opts.Delay); err != nil {
				return imported, err
			}
		}
		n, err := u.writer.CreateBatch(ctx, records[start:end], u.opts.MergeOn)
		if err != nil {
			return imported, &BatchError{FromRow: start + 1, ToRow: end, Imported: imported, Err: err}
		}
		imported += n
		if u.opts.Progress != nil {
			u.opts.Progress(imported, total)
		}
	}
	return imported, nil
}
