// Package encoding turns a customer record into the numeric feature row
// the classifier expects.
package encoding

import (
	"fmt"
	"slices"

	"github.com/okian/churnrisk/internal/domain/customer"
)

// Encoder maps a record to a feature row in a fixed column order.
type Encoder interface {
	Encode(rec customer.Record) ([]float64, error)
	// Mode names the strategy, e.g. "table" or "legacy".
	Mode() string
}

// Table maps each categorical column to its category list; a value's code
// is its index in the list.
type Table map[string][]string

// DefaultTable builds codes from the schema domains sorted
// lexicographically.
func DefaultTable() Table {
	t := make(Table)
	for _, c := range customer.CategoricalColumns() {
		t[c] = customer.SortedDomain(c)
	}
	return t
}

// Merge returns a copy of t with columns missing from it filled from fallback.
func (t Table) Merge(fallback Table) Table {
	out := make(Table, len(fallback))
	for c, cats := range fallback {
		out[c] = slices.Clone(cats)
	}
	for c, cats := range t {
		out[c] = slices.Clone(cats)
	}
	return out
}

// Code returns the integer code of value in column.
func (t Table) Code(column, value string) (int, error) {
	cats, ok := t[column]
	if !ok {
		return 0, fmt.Errorf("%w: no categories for column %s", ErrUnknownColumn, column)
	}
	idx := slices.Index(cats, value)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrUnknownCategory, column, value)
	}
	return idx, nil
}

// TableEncoder applies one category table, fitted at training time, to
// every request.
type TableEncoder struct {
	columns []string
	table   Table
}

// NewTableEncoder builds an encoder producing rows in columns order. Every
// categorical column among them must have an entry in table.
func NewTableEncoder(columns []string, table Table) (*TableEncoder, error) {
	if err := checkColumns(columns); err != nil {
		return nil, err
	}
	for _, c := range columns {
		if f, _ := customer.Lookup(c); f.Categorical() {
			if len(table[c]) == 0 {
				return nil, fmt.Errorf("%w: no categories for column %s", ErrUnknownColumn, c)
			}
		}
	}
	return &TableEncoder{columns: slices.Clone(columns), table: table.Merge(nil)}, nil
}

// Mode implements Encoder.
func (e *TableEncoder) Mode() string { return "table" }

// Encode implements Encoder.
func (e *TableEncoder) Encode(rec customer.Record) ([]float64, error) {
	row := make([]float64, len(e.columns))
	for i, c := range e.columns {
		if v, ok := rec.Categorical(c); ok {
			code, err := e.table.Code(c, v)
			if err != nil {
				return nil, err
			}
			row[i] = float64(code)
			continue
		}
		v, _ := rec.Numeric(c)
		row[i] = v
	}
	return row, nil
}

// LegacyEncoder reproduces a label encoder re-fitted on each single-row
// input: it only ever sees one category per column, so every categorical
// code is 0. SeniorCitizen is always sent as 0 whatever was selected, as
// the old form did. Other numeric columns pass through.
type LegacyEncoder struct {
	columns []string
}

// NewLegacyEncoder builds a legacy encoder producing rows in columns order.
func NewLegacyEncoder(columns []string) (*LegacyEncoder, error) {
	if err := checkColumns(columns); err != nil {
		return nil, err
	}
	return &LegacyEncoder{columns: slices.Clone(columns)}, nil
}

// Mode implements Encoder.
func (e *LegacyEncoder) Mode() string { return "legacy" }

// Encode implements Encoder.
func (e *LegacyEncoder) Encode(rec customer.Record) ([]float64, error) {
	row := make([]float64, len(e.columns))
	for i, c := range e.columns {
		if _, ok := rec.Categorical(c); ok || c == customer.ColSeniorCitizen {
			continue
		}
		row[i], _ = rec.Numeric(c)
	}
	return row, nil
}

func checkColumns(columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: empty column list", ErrUnknownColumn)
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, ok := customer.Lookup(c); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, c)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: duplicate column %s", ErrUnknownColumn, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}
