// =============================================================================
// Patron to CueBox Migrator - Tabular I/O Module
// =============================================================================
//
// This module reads and writes delimited tables. Input tables come from the
// source record system either as CSV exports or as XLSX workbooks; both are
// read into the same in-memory shape: a header list plus rows keyed by
// header name. Output tables are always written as CSV with an explicit
// column order.
//
// FEATURES:
//   - Format dispatch by file extension (.xlsx vs everything else)
//   - Lenient CSV parsing (lazy quotes, variable field counts)
//   - Empty rows are skipped, cell values are trimmed
//   - Rows are maps, so callers access fields by column header
//
// =============================================================================

package tabular

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Table represents one parsed input table.
type Table struct {
	// Headers contains the column headers in file order.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	// Using maps allows for easy field access by name.
	Rows []map[string]string

	// SourceFile is the path to the source file.
	SourceFile string
}

// RowCount is the number of data rows (excluding the header).
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// =============================================================================
// READING
// =============================================================================

// Read parses an input table. The first row is the header row; every file
// the migrator consumes is required to carry one. XLSX workbooks are read
// from their first sheet, anything else is treated as CSV.
func Read(path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("input file not found: %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path)
	}
	return readCSV(path)
}

// readCSV reads a CSV file into a Table.
func readCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))

	// Lenient settings: exports from the legacy system occasionally have
	// ragged rows and loosely quoted fields.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV %s: %w", path, err)
	}

	return fromRawRows(allRows, path)
}

// fromRawRows converts raw row slices (header first) into a Table.
func fromRawRows(allRows [][]string, path string) (*Table, error) {
	if len(allRows) == 0 {
		return nil, fmt.Errorf("file is empty: %s", path)
	}

	headers := cleanHeaders(allRows[0])

	rows := make([]map[string]string, 0, len(allRows)-1)
	for _, raw := range allRows[1:] {
		if isRowEmpty(raw) {
			continue
		}

		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(raw) {
				row[header] = strings.TrimSpace(raw[i])
			} else {
				// Column is missing in this row.
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	return &Table{
		Headers:    headers,
		Rows:       rows,
		SourceFile: path,
	}, nil
}

// cleanHeaders trims header values and names any blank headers by position
// so that row maps never collide on the empty string.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// WRITING
// =============================================================================

// Write writes rows as a CSV file with a header row, emitting columns in
// the given order. Missing keys are written as empty cells.
func Write(path string, columns []string, rows []map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush output file: %w", err)
	}

	return nil
}
