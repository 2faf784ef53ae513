// Package export writes result tables to external formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/czabriskie/simple-glue-athena/pkg/models"
)

// WriteCSV writes the table as CSV: header row first, one line per data row,
// standard comma escaping, no index column. An empty table produces no output.
func WriteCSV(w io.Writer, table *models.ResultTable) error {
	if table == nil || table.IsEmpty() {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range table.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the table to a CSV file at path, truncating any
// existing file.
func WriteCSVFile(path string, table *models.ResultTable) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
