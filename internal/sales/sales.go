// Package sales holds the daily sales table used by the data analysis
// assistant, together with the statistics and chart tools that read it.
package sales

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"
)

// DateLayout is the layout of the Date column.
const DateLayout = "2006-01-02"

// DefaultRows is the size of the generated table.
const DefaultRows = 100

// ErrColumnNotFound is returned for a column the table does not have.
var ErrColumnNotFound = errors.New("column not found")

// Kind is the inferred type of a column.
type Kind int

const (
	Categorical Kind = iota
	Numeric
	Datetime
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Datetime:
		return "datetime"
	default:
		return "categorical"
	}
}

// Table is an immutable CSV table. Cells are kept as text and parsed on demand.
type Table struct {
	columns []string
	rows    [][]string
	kinds   []Kind
}

// NewTable copies columns and rows and infers the kind of every column.
// Short rows are padded with empty cells.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{columns: slices.Clone(columns), rows: make([][]string, len(rows))}
	for i, row := range rows {
		r := make([]string, len(columns))
		copy(r, row)
		t.rows[i] = r
	}
	t.kinds = make([]Kind, len(columns))
	for i := range columns {
		t.kinds[i] = t.infer(i)
	}
	return t
}

func (t *Table) infer(col int) Kind {
	numeric, dates, seen := true, true, 0
	for _, row := range t.rows {
		cell := row[col]
		if cell == "" {
			continue
		}
		seen++
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			numeric = false
		}
		if _, err := time.Parse(DateLayout, cell); err != nil {
			dates = false
		}
	}
	switch {
	case seen == 0:
		return Categorical
	case numeric:
		return Numeric
	case dates:
		return Datetime
	}
	return Categorical
}

// Generate builds n days of sales starting 2023-01-01. Products and regions
// cycle in step, so every product always sells in the same region.
func Generate(n int) *Table {
	if n <= 0 {
		n = DefaultRows
	}
	products := []string{"Product A", "Product B", "Product C", "Product D"}
	regions := []string{"North", "South", "East", "West"}
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := make([][]string, n)
	for i := range n {
		rows[i] = []string{
			start.AddDate(0, 0, i).Format(DateLayout),
			products[i%len(products)],
			regions[i%len(regions)],
			strconv.Itoa(100 + i + (i%20)*10),
			strconv.Itoa(5 + i%10),
			strconv.FormatFloat(float64(35+i%30)/10, 'f', -1, 64),
		}
	}
	return NewTable([]string{"Date", "Product", "Region", "Sales", "Units", "Customer_Satisfaction"}, rows)
}

// Columns returns the column names in file order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

func (t *Table) index(name string) (int, error) {
	i := slices.Index(t.columns, name)
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return i, nil
}

// Kind returns the inferred kind of a column.
func (t *Table) Kind(name string) (Kind, error) {
	i, err := t.index(name)
	if err != nil {
		return 0, err
	}
	return t.kinds[i], nil
}

// Column returns the cells of a column, including empty ones.
func (t *Table) Column(name string) ([]string, error) {
	i, err := t.index(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Numbers returns the non-empty cells of a numeric column.
func (t *Table) Numbers(name string) ([]float64, error) {
	i, err := t.index(name)
	if err != nil {
		return nil, err
	}
	if t.kinds[i] != Numeric {
		return nil, fmt.Errorf("column %q is not numeric", name)
	}
	var out []float64
	for _, row := range t.rows {
		if row[i] == "" {
			continue
		}
		v, _ := strconv.ParseFloat(row[i], 64)
		out = append(out, v)
	}
	return out, nil
}

// Row returns row r keyed by column name.
func (t *Table) Row(r int) map[string]string {
	out := make(map[string]string, len(t.columns))
	for i, c := range t.columns {
		out[c] = t.rows[r][i]
	}
	return out
}

// Missing counts the empty cells of every column.
func (t *Table) Missing() map[string]int {
	out := map[string]int{}
	for i, c := range t.columns {
		for _, row := range t.rows {
			if row[i] == "" {
				out[c]++
			}
		}
	}
	return out
}

// WriteCSV writes the table with a header row, creating parent directories.
func (t *Table) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.columns); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(t.rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV reads a table whose first row is the header.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	return NewTable(records[0], records[1:]), nil
}

// LoadOrGenerate reads path, or generates n rows and writes them there when
// the file does not exist.
func LoadOrGenerate(path string, n int) (*Table, error) {
	t, err := ReadCSV(path)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	t = Generate(n)
	if err := t.WriteCSV(path); err != nil {
		return nil, fmt.Errorf("failed to save sales data: %w", err)
	}
	return t, nil
}
