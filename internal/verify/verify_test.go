package verify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"taxietl/internal/storage"
)

// fakeRepo answers QueryRow from a scripted list of value rows and QueryAll
// from a scripted list of result sets, recording every statement it sees.
type fakeRepo struct {
	rowQueries []string
	rowAnswers [][]any // one value slice per expected QueryRow call
	rowFailAt  int     // 1-based QueryRow call index, 0 means never
	rowFailErr error

	allQueries []string
	allRows    [][][]any // result sets in call order, missing entries are empty
	allFailOn  string    // fail any statement containing this substring
	allFailErr error
}

var _ storage.Repository = (*fakeRepo)(nil)

func (f *fakeRepo) CopyInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) Exec(ctx context.Context, sqlText string) error { return nil }

func (f *fakeRepo) QueryRow(ctx context.Context, sqlText string, dest ...any) error {
	f.rowQueries = append(f.rowQueries, sqlText)
	n := len(f.rowQueries)
	if f.rowFailAt > 0 && n == f.rowFailAt {
		return f.rowFailErr
	}
	vals := f.rowAnswers[n-1]
	for i, d := range dest {
		assign(d, vals[i])
	}
	return nil
}

func (f *fakeRepo) QueryAll(ctx context.Context, sqlText string) ([][]any, error) {
	f.allQueries = append(f.allQueries, sqlText)
	if f.allFailOn != "" && strings.Contains(sqlText, f.allFailOn) {
		return nil, f.allFailErr
	}
	if idx := len(f.allQueries) - 1; idx < len(f.allRows) {
		return f.allRows[idx], nil
	}
	return nil, nil
}

func (f *fakeRepo) Close() {}

func assign(dest, val any) {
	switch d := dest.(type) {
	case *int64:
		*d = val.(int64)
	case *sql.NullFloat64:
		if val == nil {
			*d = sql.NullFloat64{}
			return
		}
		*d = sql.NullFloat64{Float64: val.(float64), Valid: true}
	default:
		panic(fmt.Sprintf("unsupported scan dest %T", dest))
	}
}

func TestRun_ComputesSummary(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{rowAnswers: [][]any{
		{int64(265)},
		{int64(1000), 13.52, 2.91, 15.2, 6.41},
	}}

	s, err := Run(context.Background(), repo)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.ZoneCount != 265 || s.TripCount != 1000 {
		t.Fatalf("counts = %+v", s)
	}
	if s.AvgFare != 13.52 || s.AvgDistance != 2.91 || s.AvgDuration != 15.2 || s.AvgCostMile != 6.41 {
		t.Fatalf("averages = %+v", s)
	}
	if len(repo.rowQueries) != 2 {
		t.Fatalf("queries = %v", repo.rowQueries)
	}
	if !strings.Contains(repo.rowQueries[0], "FROM zones") {
		t.Fatalf("first query = %q", repo.rowQueries[0])
	}
	if !strings.Contains(repo.rowQueries[1], "AVG(cost_per_mile)") {
		t.Fatalf("aggregate query = %q", repo.rowQueries[1])
	}
}

func TestRun_EmptyTripsTable(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{rowAnswers: [][]any{
		{int64(265)},
		{int64(0), nil, nil, nil, nil},
	}}

	s, err := Run(context.Background(), repo)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.TripCount != 0 || s.AvgFare != 0 || s.AvgDistance != 0 || s.AvgDuration != 0 || s.AvgCostMile != 0 {
		t.Fatalf("summary = %+v, want zero trip stats", s)
	}
}

func TestRun_WrapsZoneCountError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	repo := &fakeRepo{rowFailAt: 1, rowFailErr: boom}

	_, err := Run(context.Background(), repo)
	if err == nil || !strings.Contains(err.Error(), "verify: count zones") {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("cause lost: %v", err)
	}
}

func TestRun_WrapsAggregateError(t *testing.T) {
	t.Parallel()

	boom := errors.New("relation missing")
	repo := &fakeRepo{
		rowAnswers: [][]any{{int64(1)}},
		rowFailAt:  2,
		rowFailErr: boom,
	}

	_, err := Run(context.Background(), repo)
	if err == nil || !strings.Contains(err.Error(), "verify: trip aggregates") {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("cause lost: %v", err)
	}
}
