package prescribing

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// LoadParquet loads prescribing records from a Parquet file whose columns
// use the upstream names (YEAR, YEAR_MONTH, REGION_NAME, ...).
func LoadParquet(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return ReadParquet(f, stat.Size())
}

// ReadParquet reads prescribing records from Parquet data.
func ReadParquet(r io.ReaderAt, size int64) ([]Record, error) {
	records, err := parquet.Read[Record](r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}
	return records, nil
}

// WriteParquet writes records with the same schema ReadParquet expects.
func WriteParquet(w io.Writer, records []Record) error {
	if err := parquet.Write(w, records); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	return nil
}
