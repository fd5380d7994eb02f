package export

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/cidrkit/cidrkit/internal/ipaddr"
)

// ParquetWriter buffers network rows and writes them as a Parquet file on
// Flush.
type ParquetWriter struct {
	filePath string
	rows     []Row
}

// NewParquetWriter creates a Parquet writer at outputPath.
func NewParquetWriter(outputPath string) *ParquetWriter {
	return &ParquetWriter{filePath: outputPath}
}

// WriteNetwork buffers the tabular view of a network.
func (w *ParquetWriter) WriteNetwork(ip ipaddr.IP) error {
	row, err := RowFor(ip)
	if err != nil {
		return err
	}
	w.rows = append(w.rows, row)
	return nil
}

// Flush writes the buffered rows to disk as one Parquet row group.
func (w *ParquetWriter) Flush() error {
	f, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	pw := parquet.NewGenericWriter[Row](f)
	if _, err := pw.Write(w.rows); err != nil {
		pw.Close()
		return fmt.Errorf("writing Parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("closing Parquet writer: %w", err)
	}
	return nil
}
