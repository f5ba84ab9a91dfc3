package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
)

// utf8BOM makes spreadsheet tools detect the encoding; catalog imports
// expect UTF-8 with a byte-order marker.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the rows to path as UTF-8-with-BOM CSV in the fixed
// column order, header first. encoding/csv quotes minimally.
func WriteCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	w := csv.NewWriter(f)

	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(Columns))
	for _, row := range rows {
		for i, col := range Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return f.Close()
}
