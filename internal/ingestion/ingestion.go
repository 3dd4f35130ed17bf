package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/fiscalpulse/internal/archive"
	"github.com/guttosm/fiscalpulse/internal/logger"
	"github.com/guttosm/fiscalpulse/internal/storage"
)

const (
	archiveSuffix   = ".zip"
	defaultParallel = 4
	maxParallel     = 8
)

// repoCtor is an indirection for creating the repository; tests can override this.
var repoCtor = func(db *sql.DB) storage.ReportsRepository {
	return storage.NewReportsRepository(db)
}

// BatchOptions configures ProcessDirectory.
type BatchOptions struct {
	Parallel int  // archives processed at once, clamped to 1..8 (0 = default)
	Force    bool // re-process archives already stored, replacing the previous run
	Archive  archive.Options
	Run      Options
}

// Outcome is what happened to one archive of a batch.
type Outcome struct {
	Path    string
	Skipped bool
	Result  *Result
}

// ProcessDirectory runs every *.zip archive in dir and persists each finalized
// result.
//
// Behavior:
//   - Each archive is an independent run with its own aggregator.
//   - Archives fan out over an errgroup bounded by opts.Parallel.
//   - Idempotency is keyed by the archive's SHA-256: a stored archive is
//     skipped unless opts.Force, which deletes the previous run first.
//   - The first failing archive (unreadable, persistence error) cancels the
//     rest and its error is returned.
//
// Outcomes are returned in file-name order.
func ProcessDirectory(ctx context.Context, dir string, db *sql.DB, opts BatchOptions) ([]Outcome, error) {
	repo := repoCtor(db)

	paths, err := listArchives(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s archives in %s", archiveSuffix, dir)
	}

	parallel := clampParallel(opts.Parallel)
	logger.L().Info().Int("archives", len(paths)).Str("dir", dir).Int("max_parallel", parallel).Msg("batch start")

	outcomes := make([]Outcome, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, p := range paths {
		idx, path := i, p
		g.Go(func() error {
			out, err := processArchive(gctx, repo, path, opts)
			if err != nil {
				logger.L().Error().Str("archive", filepath.Base(path)).Err(err).Msg("archive failed")
				return fmt.Errorf("archive %s: %w", path, err)
			}
			mu.Lock()
			outcomes[idx] = out
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func processArchive(ctx context.Context, repo storage.ReportsRepository, path string, opts BatchOptions) (Outcome, error) {
	start := time.Now()
	base := filepath.Base(path)

	data, err := readArchive(path)
	if err != nil {
		return Outcome{}, err
	}
	sum := archive.Checksum(data)

	exists, err := repo.HasRun(ctx, sum)
	if err != nil {
		return Outcome{}, fmt.Errorf("check run log: %w", err)
	}
	if exists && !opts.Force {
		logger.L().Info().Str("archive", base).Bool("skipped", true).Msg("already stored")
		return Outcome{Path: path, Skipped: true}, nil
	}
	runOpts := opts.Run
	runOpts.Checksum = sum
	res, err := RunBytes(ctx, base, data, opts.Archive, runOpts)
	if err != nil {
		return Outcome{}, err
	}

	if err := saveRecord(ctx, repo, RecordOf(res), exists); err != nil {
		return Outcome{}, fmt.Errorf("save run: %w", err)
	}
	logger.L().Info().Str("archive", base).Str("run_id", res.RunID).Str("status", string(res.Status)).
		Int("transactions", res.Transactions).Dur("elapsed", time.Since(start)).Bool("force", opts.Force).Msg("archive stored")
	return Outcome{Path: path, Result: res}, nil
}

// saveRecord stores rec, replacing the run with the same checksum when one
// exists. The replacement is atomic: a failed write leaves the old run intact.
func saveRecord(ctx context.Context, repo storage.ReportsRepository, rec storage.RunRecord, replace bool) error {
	if replace {
		return repo.ReplaceRun(ctx, rec)
	}
	return repo.SaveRun(ctx, rec)
}

// RecordOf converts a finalized result into its persisted form.
func RecordOf(res *Result) storage.RunRecord {
	return storage.RunRecord{
		ID:           res.RunID,
		Archive:      res.Archive,
		Checksum:     res.Checksum,
		Status:       string(res.Status),
		Files:        res.Files,
		Transactions: res.Transactions,
		Malformed:    res.MalformedFragments,
		State:        res.State,
	}
}

func listArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), archiveSuffix) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func clampParallel(n int) int {
	switch {
	case n <= 0:
		return defaultParallel
	case n > maxParallel:
		return maxParallel
	default:
		return n
	}
}

func readArchive(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", archive.ErrUnreadable, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", archive.ErrUnreadable, path, err)
	}
	return data, nil
}
