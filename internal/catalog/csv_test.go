package catalog

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "product.csv")

	rows, _ := BuildRows(variableInput())
	require.NoError(t, WriteCSV(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "file must start with a UTF-8 BOM")

	r := csv.NewReader(bytes.NewReader(data[3:]))
	records, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4, "header plus three rows")
	assert.Equal(t, Columns, records[0])

	header := records[0]
	parent := records[1]
	byCol := func(record []string, col string) string {
		for i, c := range header {
			if c == col {
				return record[i]
			}
		}
		t.Fatalf("column %q not in header", col)
		return ""
	}

	assert.Equal(t, "variable", byCol(parent, "Type"))
	assert.Equal(t, "Trail Pack 30L", byCol(parent, "Name"))
	assert.Equal(t, "variation", byCol(records[2], "Type"))
	assert.Equal(t, "GN-Trail-Pack-30L", byCol(records[2], "Parent"))
}

func TestWriteCSVEmptyCellsForUnsetColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "product.csv")

	rows, _ := BuildRows(simpleInput())
	require.NoError(t, WriteCSV(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(data[3:]))
	records, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 2)
	for _, record := range records {
		assert.Len(t, record, len(Columns))
	}
}
