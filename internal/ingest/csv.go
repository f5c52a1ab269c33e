// FILE: csv.go
// Package ingest is the minimal CSV bar loader feeding internal/bars — the
// out-of-scope "CSV/API ingestion of bars" collaborator named in spec §1,
// implemented just enough that the CLI's --local <daily> <hourly> path
// runs end to end.
//
// Grounded on the teacher's backtest.go loadCSV (header-driven,
// case-insensitive column lookup, flexible time parsing), generalized from
// float64 Candles to decimal.Decimal Bars and with strict ascending-order
// enforcement instead of silent skipping (spec §6, DataOrderError).
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
)

// ErrOutOfOrder mirrors bars.ErrOutOfOrder for the ingestion boundary
// (spec §6, DataOrderError).
var ErrOutOfOrder = bars.ErrOutOfOrder

// LoadCSV reads a generic OHLCV CSV with a header row: time|timestamp,
// open, high, low, close, volume. Rows must be in strictly ascending time
// order; a violation is rejected rather than silently skipped.
func LoadCSV(path string) ([]bars.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []bars.Bar
	var headers []string
	rowIdx := 0
	var lastTime time.Time
	haveLast := false

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: %w", err)
		}
		if rowIdx == 0 {
			headers = rec
			rowIdx++
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			k := strings.ToLower(strings.TrimSpace(h))
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		ts := first(row, "time", "timestamp")
		op := first(row, "open")
		hp := first(row, "high")
		lp := first(row, "low")
		cp := first(row, "close")
		vp := first(row, "volume", "vol")
		if ts == "" || op == "" || cp == "" {
			continue
		}
		tt, err := parseTimeFlexible(ts)
		if err != nil {
			continue
		}
		if haveLast && !tt.After(lastTime) {
			return nil, ErrOutOfOrder
		}
		lastTime = tt
		haveLast = true

		o, _ := strconv.ParseFloat(op, 64)
		h, _ := strconv.ParseFloat(hp, 64)
		l, _ := strconv.ParseFloat(lp, 64)
		c, _ := strconv.ParseFloat(cp, 64)
		v, _ := strconv.ParseFloat(vp, 64)

		out = append(out, bars.Bar{
			Time:   tt,
			Open:   decimal.FromFloat64(o),
			High:   decimal.FromFloat64(h),
			Low:    decimal.FromFloat64(l),
			Close:  decimal.FromFloat64(c),
			Volume: uint64(v),
		})
	}
	return out, nil
}

func first(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

func parseTimeFlexible(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("ingest: unrecognized time format %q", s)
}
