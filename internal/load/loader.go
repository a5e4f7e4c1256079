// Package load drives bulk writes into the warehouse: the zone lookup first,
// in one shot, then trip rows in fixed-size batches. Batches run sequentially
// by default; a bounded worker pool can overlap them once the zones are in.
//
// Logging: every successful batch emits a progress line with running totals,
// rows/sec and a content fingerprint. Fingerprints are stable across runs of
// the same input, which makes duplicate or missing batches visible when
// diagnosing a failed load.
package load

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"taxietl/internal/source"
	"taxietl/internal/storage"
)

// DefaultBatchSize is the number of trip rows per bulk write when the caller
// does not choose one.
const DefaultBatchSize = 10000

// Options tune the trip load.
type Options struct {
	BatchSize    int           // rows per bulk write, DefaultBatchSize when <= 0
	Workers      int           // concurrent trip batches, sequential when <= 1
	BatchTimeout time.Duration // per-batch deadline, 0 disables
}

// BatchResult records the outcome of one trip batch. A zero Rows count with
// a nil Err means the batch was never attempted because an earlier failure
// stopped the load.
type BatchResult struct {
	Index       int    // position in batch order, 0-based
	Rows        int64  // rows the backend reported written
	Fingerprint uint64 // content hash of the batch, stable across runs
	Err         error
}

// TripLoadResult is the outcome of a whole trip load: one entry per planned
// batch, in batch order, plus the committed row total.
type TripLoadResult struct {
	Total   int64
	Batches []BatchResult
}

// Err returns the first batch error in batch order, or nil.
func (r TripLoadResult) Err() error {
	for _, b := range r.Batches {
		if b.Err != nil {
			return fmt.Errorf("batch %d: %w", b.Index+1, b.Err)
		}
	}
	return nil
}

// Loader writes transformed records into a Repository.
type Loader struct {
	repo  storage.Repository
	opts  Options
	nowFn func() time.Time // test seam
}

// New returns a Loader over repo with normalized options.
func New(repo storage.Repository, opts Options) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Loader{repo: repo, opts: opts, nowFn: time.Now}
}

// LoadZones writes the whole lookup table in one bulk call. Zones go in
// before any trip batch so the location references resolve.
func (l *Loader) LoadZones(ctx context.Context, zones []source.Record) (int64, error) {
	cols, rows, err := zoneRows(zones)
	if err != nil {
		return 0, fmt.Errorf("load zones: %w", err)
	}
	n, err := l.repo.CopyInto(ctx, "zones", cols, rows)
	if err != nil {
		return 0, fmt.Errorf("load zones: %w", err)
	}
	log.Printf("zones loaded: rows=%d", n)
	return n, nil
}

// LoadTrips writes trip records in batches of Options.BatchSize. After a
// batch failure no later batch is started: batches committed before the
// failure stay in the store and the result reports exactly which batch
// failed.
func (l *Loader) LoadTrips(ctx context.Context, trips []source.Record) (TripLoadResult, error) {
	cols, rows := tripRows(trips)
	batches := partition(rows, l.opts.BatchSize)

	res := TripLoadResult{Batches: make([]BatchResult, len(batches))}
	for i := range res.Batches {
		res.Batches[i].Index = i
	}
	if len(batches) == 0 {
		return res, nil
	}

	if l.opts.Workers > 1 {
		return l.loadConcurrent(ctx, cols, batches, res)
	}
	return l.loadSequential(ctx, cols, batches, res)
}

func (l *Loader) loadSequential(ctx context.Context, cols []string, batches [][][]any, res TripLoadResult) (TripLoadResult, error) {
	start := l.nowFn()
	for i, batch := range batches {
		br := l.runBatch(ctx, cols, i, batch)
		res.Batches[i] = br
		if br.Err != nil {
			return res, fmt.Errorf("load trips: batch %d: %w", i+1, br.Err)
		}
		res.Total += br.Rows
		l.logBatch(br, len(batches), res.Total, l.nowFn().Sub(start))
	}
	return res, nil
}

func (l *Loader) loadConcurrent(ctx context.Context, cols []string, batches [][][]any, res TripLoadResult) (TripLoadResult, error) {
	start := l.nowFn()
	var total atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)

	for i, batch := range batches {
		if gctx.Err() != nil {
			break // an earlier batch failed; leave the rest unattempted
		}
		g.Go(func() error {
			br := l.runBatch(gctx, cols, i, batch)
			res.Batches[i] = br
			if br.Err != nil {
				return br.Err
			}
			l.logBatch(br, len(batches), total.Add(br.Rows), l.nowFn().Sub(start))
			return nil
		})
	}

	err := g.Wait()
	res.Total = total.Load()
	if err != nil {
		if resErr := res.Err(); resErr != nil {
			return res, fmt.Errorf("load trips: %w", resErr)
		}
		return res, fmt.Errorf("load trips: %w", err)
	}
	return res, nil
}

func (l *Loader) runBatch(ctx context.Context, cols []string, idx int, rows [][]any) BatchResult {
	if l.opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.BatchTimeout)
		defer cancel()
	}
	br := BatchResult{Index: idx, Fingerprint: fingerprint(rows)}
	br.Rows, br.Err = l.repo.CopyInto(ctx, "trips", cols, rows)
	return br
}

func (l *Loader) logBatch(br BatchResult, planned int, total int64, elapsed time.Duration) {
	rps := float64(0)
	if secs := elapsed.Seconds(); secs > 0 {
		rps = float64(total) / secs
	}
	log.Printf("trips batch %d/%d: inserted=%d total_inserted=%d rps=%.0f fingerprint=%016x elapsed=%s",
		br.Index+1, planned, br.Rows, total, rps, br.Fingerprint, elapsed.Truncate(time.Millisecond))
}

// fingerprint hashes a stable text rendering of the batch.
func fingerprint(rows [][]any) uint64 {
	var buf bytes.Buffer
	for _, row := range rows {
		fmt.Fprintln(&buf, row...)
	}
	return xxh3.Hash(buf.Bytes())
}

// partition slices rows into consecutive batches of at most size rows. The
// returned batches share the input's backing array.
func partition(rows [][]any, size int) [][][]any {
	if len(rows) == 0 {
		return nil
	}
	out := make([][][]any, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		out = append(out, rows[start:min(start+size, len(rows))])
	}
	return out
}
