package prescribing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/sartorproj/rxforecast/timeseries"
)

var (
	// ErrUnknownEncoding is returned when the CSV encoding is not declared or
	// not recognised.
	ErrUnknownEncoding = errors.New("unknown or undeclared text encoding")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")
)

// Columns names the CSV header fields holding each Record field.
type Columns struct {
	Year      string
	Period    string
	Region    string
	Substance string
	Items     string
	Cost      string
}

// DefaultColumns returns the header names used by the published extract.
func DefaultColumns() Columns {
	return Columns{
		Year:      "YEAR",
		Period:    "YEAR_MONTH",
		Region:    "REGION_NAME",
		Substance: "BNF_CHEMICAL_SUBSTANCE",
		Items:     "ITEMS",
		Cost:      "COST",
	}
}

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	Encoding  string // WHATWG encoding label, e.g. "utf-8" or "windows-1252"; required
	Delimiter rune   // Field delimiter (default: ',')
	Columns   Columns
}

// DefaultCSVOptions returns UTF-8, comma separated, upstream column names.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		Encoding:  "utf-8",
		Delimiter: ',',
		Columns:   DefaultColumns(),
	}
}

// LoadCSV loads prescribing records from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) ([]Record, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadCSV(file, opts)
}

// ReadCSV reads prescribing records from r, decoding it with the declared
// encoding. Period, items and cost columns are required; year is derived
// from the period when absent.
func ReadCSV(r io.Reader, opts *CSVOptions) ([]Record, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	if opts.Encoding == "" {
		return nil, ErrUnknownEncoding
	}
	enc, err := htmlindex.Get(opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, opts.Encoding)
	}

	reader := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	reader.TrimLeadingSpace = true
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		idx[strings.TrimSpace(h)] = i
	}

	cols := opts.Columns
	if cols == (Columns{}) {
		cols = DefaultColumns()
	}
	lookup := func(name string, required bool) (int, error) {
		i, ok := idx[name]
		if !ok {
			if required {
				return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
			}
			return -1, nil
		}
		return i, nil
	}

	periodIdx, err := lookup(cols.Period, true)
	if err != nil {
		return nil, err
	}
	itemsIdx, err := lookup(cols.Items, true)
	if err != nil {
		return nil, err
	}
	costIdx, err := lookup(cols.Cost, true)
	if err != nil {
		return nil, err
	}
	yearIdx, _ := lookup(cols.Year, false)
	regionIdx, _ := lookup(cols.Region, false)
	substanceIdx, _ := lookup(cols.Substance, false)

	field := func(record []string, i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var records []Record
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		period, err := timeseries.ParsePeriod(field(record, periodIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		items, err := strconv.ParseFloat(field(record, itemsIdx), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse %s: %w", row, cols.Items, err)
		}
		cost, err := strconv.ParseFloat(field(record, costIdx), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse %s: %w", row, cols.Cost, err)
		}

		year := period.Year()
		if s := field(record, yearIdx); s != "" {
			year, err = strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("row %d: parse %s: %w", row, cols.Year, err)
			}
		}

		records = append(records, Record{
			Year:      year,
			Period:    period,
			Region:    field(record, regionIdx),
			Substance: field(record, substanceIdx),
			Items:     items,
			Cost:      cost,
		})
	}

	return records, nil
}
