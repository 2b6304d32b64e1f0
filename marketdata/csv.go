package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bcdannyboy/varisk/models"
)

const dateLayout = "2006-01-02"

// ParseClosingPrices reads a price file and returns its closes newest first.
//
// Two layouts are accepted. A Yahoo style download has a header row and the
// first column whose name contains "Close" is used; rows are ordered by their
// Date column when present. Otherwise every line holds a single price and the
// file order is kept as is.
func ParseClosingPrices(r io.Reader) (models.PriceSeries, error) {
	quotes, plain, err := parseCSV(r)
	if err != nil {
		return nil, err
	}
	if plain != nil {
		return plain, nil
	}
	SortOldestFirst(quotes)
	prices := make(models.PriceSeries, len(quotes))
	for i, q := range quotes {
		prices[len(quotes)-1-i] = q.Close
	}
	return prices, nil
}

// ReadQuotes parses a Yahoo style CSV into quotes ordered oldest first.
func ReadQuotes(r io.Reader) ([]Quote, error) {
	quotes, plain, err := parseCSV(r)
	if err != nil {
		return nil, err
	}
	if plain != nil {
		return nil, models.InvalidInput("csv", "", "file has no header row")
	}
	SortOldestFirst(quotes)
	return quotes, nil
}

func parseCSV(r io.Reader) ([]Quote, models.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, models.InvalidInput("csv", 0, "price file is empty")
	}

	if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][0]), 64); err == nil && len(rows[0]) == 1 {
		prices := make(models.PriceSeries, 0, len(rows))
		for i, row := range rows {
			p, err := parsePrice(row[0], i+1)
			if err != nil {
				return nil, nil, err
			}
			prices = append(prices, p)
		}
		return nil, prices, nil
	}

	cols := columns(rows[0])
	closeCol, ok := cols["close"]
	if !ok {
		return nil, nil, models.InvalidInput("csv", strings.Join(rows[0], ","), "header has no Close column")
	}
	quotes := make([]Quote, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if closeCol >= len(row) || strings.EqualFold(strings.TrimSpace(row[closeCol]), "null") {
			continue
		}
		var q Quote
		if q.Close, err = parsePrice(row[closeCol], line); err != nil {
			return nil, nil, err
		}
		if c, ok := cols["date"]; ok && c < len(row) {
			if q.Date, err = time.Parse(dateLayout, strings.TrimSpace(row[c])); err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		q.Open = optionalFloat(row, cols, "open")
		q.High = optionalFloat(row, cols, "high")
		q.Low = optionalFloat(row, cols, "low")
		q.AdjClose = optionalFloat(row, cols, "adj close")
		q.Volume = int64(optionalFloat(row, cols, "volume"))
		quotes = append(quotes, q)
	}
	if len(quotes) == 0 {
		return nil, nil, models.InvalidInput("csv", 0, "price file has no rows")
	}
	return quotes, nil, nil
}

// columns maps lower-cased header names to their index. "close" resolves to
// the first header containing Close.
func columns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
		if _, seen := cols["close"]; !seen && strings.Contains(name, "close") {
			cols["close"] = i
		}
	}
	return cols
}

func parsePrice(field string, line int) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", line, err)
	}
	if p <= 0 {
		return 0, models.InvalidInput("price", p, "line %d: price must be positive", line)
	}
	return p, nil
}

func optionalFloat(row []string, cols map[string]int, name string) float64 {
	c, ok := cols[name]
	if !ok || c >= len(row) {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
	if err != nil {
		return 0
	}
	return v
}

// CSVProvider serves quotes from a directory of <SYMBOL>.csv files.
type CSVProvider struct {
	Dir string
}

func (p CSVProvider) GetQuotes(ctx context.Context, symbol string, start, end time.Time) ([]Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(p.Dir, strings.ToUpper(symbol)+".csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to open price file for %s: %w", symbol, err)
	}
	defer f.Close()

	quotes, err := ReadQuotes(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price file for %s: %w", symbol, err)
	}
	return filterRange(quotes, start, end), nil
}

// filterRange keeps the quotes dated within [start, end]. Zero bounds are open.
func filterRange(quotes []Quote, start, end time.Time) []Quote {
	out := quotes[:0:0]
	for _, q := range quotes {
		if !start.IsZero() && q.Date.Before(start) {
			continue
		}
		if !end.IsZero() && q.Date.After(end) {
			continue
		}
		out = append(out, q)
	}
	return out
}
