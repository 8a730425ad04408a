// Package ingest reads listing tables from CSV sources and selects which
// source file a run analyzes.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// ErrMissingColumn is returned when a required column is absent from the
// header row.
var ErrMissingColumn = errors.New("missing required column")

// Column names of the listings table.
const (
	ColIndex      = "index"
	ColName       = "name"
	ColPrice      = "price"
	ColCondition  = "condition"
	ColPostedDate = "posted_date"
	ColURL        = "url"
	ColOutlier    = "outlier_flag"
)

// Header is the column order written by WriteRaw.
var Header = []string{ColIndex, ColName, ColPrice, ColCondition, ColPostedDate, ColURL}

// aliases maps accepted header spellings to canonical column names.
var aliases = map[string]string{
	"":         ColIndex,
	"no":       ColIndex,
	"title":    ColName,
	"商品名":      ColName,
	"価格":       ColPrice,
	"grade":    ColCondition,
	"商品の状態":    ColCondition,
	"状態":       ColCondition,
	"posted":   ColPostedDate,
	"date":     ColPostedDate,
	"投稿日":      ColPostedDate,
	"link":     ColURL,
	"商品url":    ColURL,
	"item_url": ColURL,
}

func canonical(h string) string {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	if c, ok := aliases[key]; ok {
		return c
	}
	return key
}

// Read parses a listings table. Price and condition are required columns;
// the others are optional. Rows without an index column are numbered from
// zero. An outlier_flag column is ignored: flags are always recomputed.
func Read(r io.Reader) ([]domain.RawListing, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []domain.RawListing{}, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		c := canonical(h)
		if _, dup := cols[c]; !dup {
			cols[c] = i
		}
	}
	for _, req := range []string{ColPrice, ColCondition} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, req)
		}
	}

	field := func(row []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := []domain.RawListing{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}
		if blank(row) {
			continue
		}

		idx := len(out)
		if v, err := strconv.Atoi(field(row, ColIndex)); err == nil {
			idx = v
		}

		out = append(out, domain.RawListing{
			Index:      idx,
			Name:       field(row, ColName),
			Price:      field(row, ColPrice),
			Condition:  field(row, ColCondition),
			PostedDate: field(row, ColPostedDate),
			URL:        field(row, ColURL),
		})
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) ([]domain.RawListing, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from config or CLI
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rows, nil
}

// WriteRaw writes rows in Header order.
func WriteRaw(w io.Writer, rows []domain.RawListing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := range rows {
		r := &rows[i]
		if err := cw.Write([]string{
			strconv.Itoa(r.Index), r.Name, r.Price, r.Condition, r.PostedDate, r.URL,
		}); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadURLs reads a URL list: either a CSV with a url column (the first
// column otherwise) or one URL per line. Blank lines and duplicates are
// dropped; order is kept.
func ReadURLs(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading url list: %w", err)
	}
	if len(rows) == 0 {
		return []string{}, nil
	}

	col := 0
	start := 0
	for i, h := range rows[0] {
		if canonical(h) == ColURL {
			col, start = i, 1
			break
		}
	}

	seen := make(map[string]struct{})
	out := []string{}
	for _, row := range rows[start:] {
		if col >= len(row) {
			continue
		}
		u := strings.TrimSpace(row[col])
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out, nil
}
