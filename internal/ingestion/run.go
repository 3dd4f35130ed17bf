// Package ingestion drives extraction, parsing and aggregation over the files
// of one archive, and over directories of archives.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/guttosm/fiscalpulse/internal/aggregate"
	"github.com/guttosm/fiscalpulse/internal/archive"
	"github.com/guttosm/fiscalpulse/internal/domain/models"
	"github.com/guttosm/fiscalpulse/internal/extract"
	"github.com/guttosm/fiscalpulse/internal/parser"
	"github.com/guttosm/fiscalpulse/internal/report"
	"github.com/guttosm/fiscalpulse/internal/tax"
)

// Status is the outcome of a completed run.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty" // no transactions in any file
)

// Options configures a run.
type Options struct {
	// NominalRates overrides the percent table for exports without TXPR.
	NominalRates map[string]decimal.Decimal
	// Checksum of the archive bytes, carried into the Result for persistence.
	Checksum string
	// Sink receives progress events; nil discards them.
	Sink Sink
}

// Result is a completed run. Aborted runs never produce one.
type Result struct {
	RunID    string
	Archive  string
	Checksum string
	Status   Status

	// Items is the flat item list in discovery order.
	Items []report.ItemRow
	State *aggregate.State

	Files              int
	Fragments          int
	Transactions       int
	MalformedFragments int
	Elapsed            time.Duration
}

// Rows lays the result out as report rows.
func (r *Result) Rows() []report.Row {
	return report.Build(r.Items, r.State)
}

// Run processes files in order on the calling goroutine. ctx is checked
// before each file; on cancellation the partial state is dropped and
// ctx.Err() is returned. Malformed containers are reported to the sink and
// skipped.
func Run(ctx context.Context, archiveName string, files []archive.File, opts Options) (*Result, error) {
	start := time.Now()
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}

	res := &Result{
		RunID:    uuid.NewString(),
		Archive:  archiveName,
		Checksum: opts.Checksum,
		Files:    len(files),
	}
	p := parser.New(parser.Options{NominalRates: opts.NominalRates})
	agg := aggregate.New()

	var sales, returns int
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run %s aborted before %s: %w", res.RunID, f.Name, err)
		}

		fileStart := time.Now()
		base := Event{RunID: res.RunID, Archive: archiveName, File: f.Name, FileIndex: i + 1, FileTotal: len(files)}
		started := base
		started.Type = EventFileStart
		sink.Publish(started)

		done := base
		done.Type = EventFileDone
		for blk := range extract.Blocks(f.Content) {
			done.Fragments++
			recs, err := p.Parse(f.Name, blk)
			if err != nil {
				done.Malformed++
				ev := base
				ev.Type = EventFragmentError
				ev.Fragment = blk.Index
				ev.Err = err
				sink.Publish(ev)
				continue
			}
			for _, rec := range recs {
				if err := agg.Absorb(rec, tax.Apportion(rec)); err != nil {
					return nil, fmt.Errorf("absorb check %s from %s: %w", rec.CheckNumber, f.Name, err)
				}
				res.Items = append(res.Items, report.ItemsOf(rec)...)
				if rec.Kind == models.KindReturn {
					done.Returns++
				} else {
					done.Sales++
				}
			}
		}
		done.Elapsed = time.Since(fileStart)
		sink.Publish(done)

		res.Fragments += done.Fragments
		res.MalformedFragments += done.Malformed
		sales += done.Sales
		returns += done.Returns
	}

	st, err := agg.Finalize()
	if err != nil {
		return nil, err
	}
	res.State = st
	res.Transactions = agg.Absorbed()
	res.Status = StatusOK
	if res.Transactions == 0 {
		res.Status = StatusEmpty
	}
	res.Elapsed = time.Since(start)

	sink.Publish(Event{
		Type:      EventRunDone,
		RunID:     res.RunID,
		Archive:   archiveName,
		FileTotal: res.Files,
		Fragments: res.Fragments,
		Malformed: res.MalformedFragments,
		Sales:     sales,
		Returns:   returns,
		Status:    res.Status,
		Elapsed:   res.Elapsed,
	})
	return res, nil
}

// RunArchive opens the archive at path and runs it. Opening failures wrap
// archive.ErrUnreadable.
func RunArchive(ctx context.Context, path string, ao archive.Options, opts Options) (*Result, error) {
	data, err := readArchive(path)
	if err != nil {
		return nil, err
	}
	return RunBytes(ctx, path, data, ao, opts)
}

// RunBytes runs an archive held in memory; name identifies it in logs and results.
func RunBytes(ctx context.Context, name string, data []byte, ao archive.Options, opts Options) (*Result, error) {
	files, err := archive.FromBytes(name, data, ao)
	if err != nil {
		return nil, err
	}
	if opts.Checksum == "" {
		opts.Checksum = archive.Checksum(data)
	}
	return Run(ctx, name, files, opts)
}
