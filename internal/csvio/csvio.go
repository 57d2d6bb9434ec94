package csvio

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

// DateLayout is the fixed day/month/year format used in every output CSV.
const DateLayout = "02/01/2006"

// Table is a header-indexed CSV file loaded into memory. Reads go through
// the header index so that callers never depend on column positions.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// Read loads the CSV at path. An empty file (no header) is an error.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file, expected a header row", path)
	}

	t := &Table{
		Header: records[0],
		Rows:   records[1:],
		index:  make(map[string]int, len(records[0])),
	}
	for i, name := range t.Header {
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	return t, nil
}

// Reindex rebuilds the column index from the current header. Callers that
// rename header entries in place must reindex before lookups.
func (t *Table) Reindex() *Table {
	t.index = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	return t
}

// Col returns the index of the named column.
func (t *Table) Col(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Require fails with a descriptive error if any of the named columns is
// missing. Missing required columns are fatal for every pipeline stage.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required column(s) %v, file has %v", missing, t.Header)
	}
	return nil
}

// Get returns the named field of a row, or "" when the row is short.
func (t *Table) Get(row []string, name string) string {
	i, ok := t.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Float returns the named field parsed as float64, NaN for empty or
// unparseable cells. Mirrors how the provider CSVs encode missing values.
func (t *Table) Float(row []string, name string) float64 {
	s := strings.TrimSpace(t.Get(row, name))
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Float is a float64 that serializes NaN as an empty CSV cell, the way the
// provider files and pandas-produced CSVs encode missing values.
type Float float64

func (f Float) MarshalCSV() (string, error) {
	v := float64(f)
	if math.IsNaN(v) {
		return "", nil
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

func (f *Float) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*f = Float(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// WriteRows marshals a slice of tagged row structs to path, creating parent
// directories as needed. rows must be a pointer to a slice.
func WriteRows(path string, rows interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}

// WriteTable writes a header and pre-rendered rows to path, for outputs
// whose column set is only known at run time.
func WriteTable(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// FormatFloat renders a float for a CSV cell, NaN as an empty cell.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatDate renders a date in the fixed dd/mm/yyyy output format.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// ParseDate accepts the dd/mm/yyyy output format and the ISO form the
// provider feeds use.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the provider timestamp formats, normalizing to UTC.
// Callers drop (and count) rows for which it fails.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
