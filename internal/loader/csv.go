package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/shopspring/decimal"
)

// orderDateLayouts are tried in order when parsing the orders file.
var orderDateLayouts = []string{
	v1.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"02-Jan-06",
}

// columnAliases maps normalized header names onto canonical column names.
var columnAliases = map[string]string{
	"phone_number":   "phone",
	"address_line_1": "address",
	"loyalty":        "loyalty_card",
}

// table is a CSV file read into header-addressable records.
type table struct {
	file    string
	columns map[string]int
	rows    [][]string
	lines   []int
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.Join(strings.Fields(h), "_")
	if alias, ok := columnAliases[h]; ok {
		return alias
	}
	return h
}

func readTable(file string, r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", file)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", file, err)
	}

	t := &table{file: file, columns: make(map[string]int, len(header))}
	for i, h := range header {
		t.columns[normalizeHeader(h)] = i
	}
	for _, col := range required {
		if _, ok := t.columns[col]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", file, col)
		}
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		line, _ := cr.FieldPos(0)
		t.rows = append(t.rows, rec)
		t.lines = append(t.lines, line)
	}
	return t, nil
}

// get returns the trimmed value of col in rec, or "" when the column is absent.
func (t *table) get(rec []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseDecimal(col, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", col, s, err)
	}
	return d, nil
}

func parseOrderDate(s string) (time.Time, error) {
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return v1.NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid order_date %q", s)
}

func parseQuantity(s string) (int64, error) {
	q, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	if q <= 0 {
		return 0, fmt.Errorf("quantity must be > 0, got %d", q)
	}
	return q, nil
}
