package experiment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/cirdeirf/mpt/inside"
	"github.com/cirdeirf/mpt/mptlog"
	"github.com/cirdeirf/mpt/pta/parse"
	"github.com/cirdeirf/mpt/search"
)

// BatchResult pairs a manifest Run with the outcome of executing it.
type BatchResult struct {
	Run    Run
	Result *search.Result
	Err    error
}

// MaxParallel bounds how many manifest entries run concurrently. The core
// search stays single-threaded per query; only independent files/queries
// run side by side at the batch layer.
const MaxParallel = 8

// RunBatch executes every Run in m, relative to baseDir, bounded to
// MaxParallel concurrent queries via an errgroup and a weighted semaphore.
// Results preserve manifest order; a single Run's failure does not abort
// the others.
func RunBatch(ctx context.Context, m *Manifest, baseDir string, opts search.Options, logger mptlog.Logger) ([]BatchResult, error) {
	if logger == nil {
		logger = mptlog.Noop()
	}

	results := make([]BatchResult, len(m.Runs))
	sem := semaphore.NewWeighted(MaxParallel)
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	for i, run := range m.Runs {
		i, run := i, run
		if err := sem.Acquire(gctx, 1); err != nil {
			return results, fmt.Errorf("batch acquire: %w", err)
		}
		g.Go(func() error {
			defer sem.Release(1)
			res, err := runOne(baseDir, run, opts)
			mu.Lock()
			results[i] = BatchResult{Run: run, Result: res, Err: err}
			mu.Unlock()
			if err != nil {
				logger.Warnf("run %q failed: %v", run.Name, err)
			} else {
				logger.Infof("run %q probability=%v insertions=%d", run.Name, res.Probability, res.Insertions)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func runOne(baseDir string, run Run, opts search.Options) (*search.Result, error) {
	path := run.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	a, err := parse.Parse(f)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = mptlog.Noop()
	}
	bounds := inside.Compute(a, log)

	if run.BestParse {
		return search.BestParse(a, bounds, opts)
	}
	return search.MPT(a, bounds, opts)
}
