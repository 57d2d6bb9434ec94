package csvio

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadAndRequire(t *testing.T) {
	path := writeTemp(t, "A,B,C\n1,2,3\n4,,6\n")
	table, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}
	if err := table.Require("A", "C"); err != nil {
		t.Errorf("Require() on present columns: %v", err)
	}
	err = table.Require("A", "X", "Y")
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "X") || !strings.Contains(err.Error(), "Y") {
		t.Errorf("error %q does not name the missing columns", err)
	}
}

func TestReadEmptyFile(t *testing.T) {
	path := writeTemp(t, "")
	if _, err := Read(path); err == nil {
		t.Fatal("expected error for file without header")
	}
}

func TestFloatParsing(t *testing.T) {
	path := writeTemp(t, "K,V\na,1.5\nb,\nc,not-a-number\n")
	table, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got := table.Float(table.Rows[0], "V"); got != 1.5 {
		t.Errorf("Float = %v, want 1.5", got)
	}
	if got := table.Float(table.Rows[1], "V"); !math.IsNaN(got) {
		t.Errorf("empty cell = %v, want NaN", got)
	}
	if got := table.Float(table.Rows[2], "V"); !math.IsNaN(got) {
		t.Errorf("bad cell = %v, want NaN", got)
	}
}

func TestReindexAfterRename(t *testing.T) {
	path := writeTemp(t, "TRDPRC_1,HIGH_1\n100,101\n")
	table, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	table.Header[0] = "CLOSE"
	table.Reindex()
	if got := table.Get(table.Rows[0], "CLOSE"); got != "100" {
		t.Errorf("renamed lookup = %q, want 100", got)
	}
	if _, ok := table.Col("TRDPRC_1"); ok {
		t.Error("old name still resolvable after reindex")
	}
}

func TestFloatRoundTripNaN(t *testing.T) {
	s, err := Float(math.NaN()).MarshalCSV()
	if err != nil {
		t.Fatal(err)
	}
	if s != "" {
		t.Errorf("NaN marshaled to %q, want empty cell", s)
	}

	var f Float
	if err := f.UnmarshalCSV(""); err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(float64(f)) {
		t.Errorf("empty cell unmarshaled to %v, want NaN", float64(f))
	}
	if err := f.UnmarshalCSV("0.25"); err != nil {
		t.Fatal(err)
	}
	if float64(f) != 0.25 {
		t.Errorf("got %v, want 0.25", float64(f))
	}
}

func TestWriteRowsCreatesDirectories(t *testing.T) {
	type row struct {
		Name  string `csv:"NAME"`
		Value Float  `csv:"VALUE"`
	}
	path := filepath.Join(t.TempDir(), "deep", "nested", "out.csv")
	rows := []row{{Name: "a", Value: 1}, {Name: "b", Value: Float(math.NaN())}}

	if err := WriteRows(path, &rows); err != nil {
		t.Fatalf("WriteRows() error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if lines[0] != "NAME,VALUE" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "b," {
		t.Errorf("NaN row = %q, want trailing empty cell", lines[2])
	}
}

func TestParseDateFormats(t *testing.T) {
	for _, s := range []string{"03/01/2024", "2024-01-03"} {
		d, err := ParseDate(s)
		if err != nil {
			t.Errorf("ParseDate(%q) error: %v", s, err)
			continue
		}
		if d.Day() != 3 || d.Month() != 1 || d.Year() != 2024 {
			t.Errorf("ParseDate(%q) = %v", s, d)
		}
	}
	if _, err := ParseDate("01-03-2024"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestParseTimestampFormats(t *testing.T) {
	good := []string{
		"2024-01-03T09:15:00Z",
		"2024-01-03 09:15:00",
		"2024-01-03T09:15:00",
		"2024-01-03",
	}
	for _, s := range good {
		ts, err := ParseTimestamp(s)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) error: %v", s, err)
			continue
		}
		if ts.Location().String() != "UTC" {
			t.Errorf("ParseTimestamp(%q) not normalized to UTC: %v", s, ts.Location())
		}
	}
	for _, s := range []string{"", "yesterday", "03/01/2024 9am"} {
		if _, err := ParseTimestamp(s); err == nil {
			t.Errorf("ParseTimestamp(%q) should fail", s)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	if got := FormatFloat(math.NaN()); got != "" {
		t.Errorf("NaN formatted as %q, want empty", got)
	}
	if got := FormatFloat(0.05); got != "0.05" {
		t.Errorf("got %q, want 0.05", got)
	}
}
