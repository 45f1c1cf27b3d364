package training

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Dataset is a header-indexed table of raw CSV cells.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewDataset builds a Dataset from a header and rows. Short rows are padded
// with empty cells.
func NewDataset(columns []string, rows [][]string) *Dataset {
	d := &Dataset{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]string, 0, len(rows)),
	}
	for i, c := range columns {
		c = strings.TrimSpace(c)
		d.columns[i] = c
		if _, dup := d.index[c]; !dup {
			d.index[c] = i
		}
	}
	for _, r := range rows {
		if len(r) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, r)
			r = padded
		}
		d.rows = append(d.rows, r)
	}
	return d
}

// LoadCSV reads a dataset file. See ReadCSV for the accepted encodings.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses a CSV table with a header row. UTF-8 input may carry a
// byte order mark; anything that is not valid UTF-8 is decoded as CP949.
func ReadCSV(r io.Reader) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		decoded, err := korean.EUCKR.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decode cp949: %w", err)
		}
		raw = decoded
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return NewDataset(header, records), nil
}

// Columns returns the header in file order.
func (d *Dataset) Columns() []string { return append([]string(nil), d.columns...) }

// Len returns the number of data rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Has reports whether the header contains column.
func (d *Dataset) Has(column string) bool {
	_, ok := d.index[column]
	return ok
}

// Value returns the trimmed cell at row for column, or "" if the column is absent.
func (d *Dataset) Value(row int, column string) string {
	i, ok := d.index[column]
	if !ok {
		return ""
	}
	return strings.TrimSpace(d.rows[row][i])
}

// Missing returns the columns from want that the header lacks.
func (d *Dataset) Missing(want ...string) []string {
	var missing []string
	for _, c := range want {
		if !d.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}
