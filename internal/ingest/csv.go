package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is a column-keyed view of a delimited observation file. Headers
// are normalized to lower case; cell values are kept as raw strings so the
// dataset builder decides which columns are numeric.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Read parses delimited data into a Table. Headers are matched
// case-insensitively and surrounding whitespace is trimmed.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if name == "" {
			return nil, fmt.Errorf("blank header in column %d", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
		columns[i] = name
	}

	table := &Table{Columns: columns}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(table.Rows)+2, err)
		}
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			row[col] = strings.TrimSpace(record[i])
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadFile parses a delimited file from disk.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Load reads the observation table from a local path or, when the source
// looks like a URL, fetches it over HTTP with retries.
func Load(source string) (*Table, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return FetchURL(source)
	}
	return ReadFile(source)
}
