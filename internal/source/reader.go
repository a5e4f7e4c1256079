// Package source implements the raw-file boundary of the pipeline: a
// line-oriented CSV reader that yields rows as field-name-keyed records.
//
// The reader buffers the whole file into memory; the pipeline's transform
// contract operates on full in-memory collections, and input volumes are
// bounded by a single month of trip data. Header cells are sanitized so that
// real-world exports (UTF-8 BOM, zero-width characters, stray padding) still
// produce the exact field names the transformer expects.
package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options configures the CSV reader. All fields are optional; zero values
// apply sensible defaults.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing ASCII spaces from each field value.
	TrimSpace bool
}

// Reader parses delimited files according to Options. It is safe to reuse
// across inputs, but Reader itself is not concurrency-safe.
type Reader struct{ opt Options }

// NewReader constructs a Reader with the provided Options.
func NewReader(opt Options) *Reader { return &Reader{opt: opt} }

// headerScrub normalizes a header cell to NFC and strips Unicode format
// runes. U+FEFF (the UTF-8 BOM) is a format rune, so a BOM glued to the
// first cell disappears here along with zero-width joiners and friends.
var headerScrub = transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cf)))

// ReadFile opens path and parses it. A missing file is an error before any
// processing; the returned error preserves os.ErrNotExist for errors.Is.
func (rd *Reader) ReadFile(ctx context.Context, path string) ([]Record, []string, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	adviseSequential(f)

	recs, headers, err := rd.Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return recs, headers, nil
}

// Parse consumes delimited records from r. It returns the parsed rows and the
// sanitized header names in file order.
//
// The header row is mandatory. Every data row must have exactly as many
// fields as the header; encoding/csv enforces this and the resulting
// *csv.ParseError (carrying the offending line number) is propagated as a
// hard error, since downstream stages assume aligned rows.
func (rd *Reader) Parse(r io.Reader) ([]Record, []string, error) {
	cr := csv.NewReader(r)
	if rd.opt.Comma != 0 {
		cr.Comma = rd.opt.Comma
	}
	cr.ReuseRecord = false

	h, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	headers := sanitizeHeaders(h)

	var out []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}

		rec := make(Record, len(row))
		for i, val := range row {
			if rd.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[headers[i]] = emptyToNil(val)
		}
		out = append(out, rec)
	}

	return out, headers, nil
}

// sanitizeHeaders scrubs each header cell (NFC + format-rune removal) and
// trims surrounding space. Falls back to a plain trim if the transform fails
// on malformed input.
func sanitizeHeaders(h []string) []string {
	res := make([]string, len(h))
	for i, col := range h {
		s, _, err := transform.String(headerScrub, col)
		if err != nil {
			s = col
		}
		res[i] = strings.TrimSpace(s)
	}
	return res
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
