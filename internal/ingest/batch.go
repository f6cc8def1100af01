package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/semscout/semscout/pkg/types"
)

// DefaultBatchWorkers bounds concurrent file ingestions during a batch run.
const DefaultBatchWorkers = 16

// skipDirs are never descended into during discovery.
var skipDirs = map[string]struct{}{
	"vendor":       {},
	"node_modules": {},
}

// BatchIndexer drives the Coordinator over an entire tree at startup.
type BatchIndexer struct {
	coord   *Coordinator
	workers int
	logger  *zap.Logger
}

// NewBatchIndexer creates a batch indexer with a bounded worker pool.
// workers <= 0 selects DefaultBatchWorkers.
func NewBatchIndexer(coord *Coordinator, workers int, logger *zap.Logger) *BatchIndexer {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchIndexer{coord: coord, workers: workers, logger: logger}
}

// IndexTree ingests every regular file under root. A single file's failure
// is counted, never fatal; cancellation stops scheduling new files and the
// report covers the work done so far.
func (b *BatchIndexer) IndexTree(ctx context.Context, root string) (*types.BatchReport, error) {
	files, err := discoverFiles(root)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	b.logger.Info("batch indexing started",
		zap.String("root", root), zap.Int("files", len(files)), zap.Int("workers", b.workers))

	var (
		succeeded, unsupported, tooLarge, failed atomic.Int64
		errMu                                    sync.Mutex
		errMsgs                                  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for _, path := range files {
		if gctx.Err() != nil {
			break // stop scheduling on cancellation
		}
		g.Go(func() error {
			err := b.coord.Handle(gctx, types.FileEvent{Kind: types.EventAdded, Path: path})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, types.ErrUnsupportedFile):
				unsupported.Add(1)
			case errors.Is(err, types.ErrFileTooLarge):
				tooLarge.Add(1)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				// Partial result for this file was already discarded.
			default:
				failed.Add(1)
				errMu.Lock()
				errMsgs = append(errMsgs, fmt.Sprintf("%s: %v", path, err))
				errMu.Unlock()
			}
			return nil // per-file failures never abort the group
		})
	}
	_ = g.Wait()

	report := &types.BatchReport{
		Succeeded:          int(succeeded.Load()),
		SkippedUnsupported: int(unsupported.Load()),
		SkippedTooLarge:    int(tooLarge.Load()),
		Failed:             int(failed.Load()),
		Errors:             errMsgs,
	}
	b.logger.Info("batch indexing finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("skipped_unsupported", report.SkippedUnsupported),
		zap.Int("skipped_too_large", report.SkippedTooLarge),
		zap.Int("failed", report.Failed),
	)
	return report, ctx.Err()
}

// discoverFiles enumerates regular files under root, skipping hidden
// directories and dependency trees.
func discoverFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
