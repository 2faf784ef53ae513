package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/czabriskie/simple-glue-athena/pkg/models"
)

func TestWriteCSV(t *testing.T) {
	table := &models.ResultTable{
		Columns: []string{"fl_date", "flight_count"},
		Rows: [][]string{
			{"2024-01-01", "120"},
			{"2024-01-02", "98"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	expected := "fl_date,flight_count\n2024-01-01,120\n2024-01-02,98\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteCSV_Escaping(t *testing.T) {
	table := &models.ResultTable{
		Columns: []string{"name", "note"},
		Rows: [][]string{
			{"a,b", `quote "here"`},
			{"plain", "multi\nline"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	expected := "name,note\n\"a,b\",\"quote \"\"here\"\"\"\nplain,\"multi\nline\"\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &models.ResultTable{}))
	assert.Empty(t, buf.String())
	require.NoError(t, WriteCSV(&buf, nil))
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight_statistics.csv")
	table := &models.ResultTable{
		Columns: []string{"a"},
		Rows:    [][]string{{"1"}},
	}

	require.NoError(t, WriteCSVFile(path, table))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))
}
