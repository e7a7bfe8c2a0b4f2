// Package scan walks stored objects in batches and hands each one to a
// processor. The files-manager backfill command uses it to queue thumbnail
// jobs for images stored before the worker ran.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// DefaultBatchSize is the number of objects listed per repository query
const DefaultBatchSize = 100

// Scanner queries objects and processes them with the provided processor.
type Scanner struct {
	repository filesmanager.Repository
	logger     *slog.Logger
}

// New creates a new Scanner instance. A nil logger uses slog.Default.
func New(repository filesmanager.Repository, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{repository: repository, logger: logger}
}

// ScanOptions configures the scan operation.
type ScanOptions struct {
	// OwnerID restricts the scan to one user's objects (optional)
	OwnerID *string

	// Kind restricts the scan to one kind (optional)
	Kind *filesmanager.Kind

	// Processor defines the processing logic (required unless DryRun is true)
	Processor ObjectProcessor

	// BatchSize controls how many objects to query at once (default: 100)
	BatchSize int

	// DryRun if true, doesn't process objects, just logs what would be processed
	DryRun bool

	// OnProgress is called after each batch is processed (optional)
	OnProgress func(processed, total int64)
}

// ScanResult contains statistics about the scan operation.
type ScanResult struct {
	TotalFound     int64
	TotalProcessed int64
	TotalFailed    int64
	TotalSkipped   int64

	// FailedIDs contains the IDs of objects that failed processing
	FailedIDs []string
}

// Scan lists objects matching the options and processes each one. A failing
// object is recorded and scanning continues with the next one.
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	result := &ScanResult{}

	if !opts.DryRun && opts.Processor == nil {
		return result, fmt.Errorf("processor is required when DryRun is false")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		objects, err := s.repository.ListObjects(ctx, filesmanager.ListObjectsParams{
			OwnerID: opts.OwnerID,
			Kind:    opts.Kind,
			Limit:   opts.BatchSize,
			Offset:  offset,
		})
		if err != nil {
			return result, fmt.Errorf("failed to list objects: %w", err)
		}
		if len(objects) == 0 {
			break
		}

		result.TotalFound += int64(len(objects))

		for _, object := range objects {
			if opts.DryRun {
				s.logger.Info("dry run: would process object",
					"id", object.ID, "user_id", object.OwnerID, "type", object.Kind, "name", object.Name)
				result.TotalProcessed++
				continue
			}

			if err := opts.Processor.Process(ctx, object); err != nil {
				if errors.Is(err, ErrSkip) {
					result.TotalSkipped++
					continue
				}
				result.TotalFailed++
				result.FailedIDs = append(result.FailedIDs, object.ID.String())
				s.logger.Error("failed to process object", "id", object.ID, "error", err)
				continue
			}

			result.TotalProcessed++
		}

		if opts.OnProgress != nil {
			opts.OnProgress(result.TotalProcessed+result.TotalFailed+result.TotalSkipped, result.TotalFound)
		}

		if len(objects) < opts.BatchSize {
			break
		}
		offset += opts.BatchSize
	}

	return result, nil
}

// ForEach processes each object with a callback function.
func (s *Scanner) ForEach(ctx context.Context, opts ScanOptions, fn func(context.Context, *filesmanager.Object) error) (*ScanResult, error) {
	opts.Processor = ProcessorFunc(fn)
	return s.Scan(ctx, opts)
}
