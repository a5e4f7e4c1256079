// csvprobe summarizes a raw input file before it enters the pipeline: the
// column names exactly as the pipeline's reader will key them, the number of
// data rows, and how many rows leave each column empty. Run it against a
// fresh monthly extract to catch renamed or half-filled columns before a
// load.
//
// Output is one CSV line per column (position,name,empty) followed by a
// trailing row count, or a single JSON document with -json.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"unicode/utf8"

	"taxietl/internal/source"
)

var (
	flagFile      = flag.String("file", "", "path of the CSV file to probe")
	flagDelimiter = flag.String("delimiter", ",", "field delimiter (single character)")
	flagJSON      = flag.Bool("json", false, "emit the summary as a JSON document instead of CSV lines")
)

type columnSummary struct {
	Name  string `json:"name"`
	Empty int    `json:"empty"`
}

type fileSummary struct {
	File    string          `json:"file"`
	Rows    int             `json:"rows"`
	Columns []columnSummary `json:"columns"`
}

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("csvprobe: ")

	if *flagFile == "" {
		fmt.Fprintln(os.Stderr, "csvprobe: -file is required")
		flag.Usage()
		os.Exit(2)
	}

	delim := ','
	if *flagDelimiter != "" {
		if r, _ := utf8.DecodeRuneInString(*flagDelimiter); r != utf8.RuneError {
			delim = r
		}
	}

	sum, err := probeFile(context.Background(), *flagFile, delim)
	if err != nil {
		log.Fatal(err)
	}
	if err := render(os.Stdout, sum, *flagJSON); err != nil {
		log.Fatal(err)
	}
}

// probeFile parses path with the same reader settings the pipeline uses, so
// the reported column names are the field names the transform stage will see.
func probeFile(ctx context.Context, path string, delim rune) (fileSummary, error) {
	rd := source.NewReader(source.Options{Comma: delim, TrimSpace: true})
	recs, headers, err := rd.ReadFile(ctx, path)
	if err != nil {
		return fileSummary{}, err
	}

	sum := fileSummary{File: path, Rows: len(recs), Columns: make([]columnSummary, len(headers))}
	for i, h := range headers {
		sum.Columns[i].Name = h
		for _, rec := range recs {
			if rec.IsNil(h) {
				sum.Columns[i].Empty++
			}
		}
	}
	return sum, nil
}

func render(w io.Writer, sum fileSummary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	for i, c := range sum.Columns {
		if _, err := fmt.Fprintf(w, "%d,%s,%d\n", i+1, c.Name, c.Empty); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "rows,%d\n", sum.Rows)
	return err
}
