// Package analysis holds the pipeline stages behind each rxforecast
// command. Stages take records or series and return structured results;
// they neither print nor log.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sartorproj/rxforecast/prescribing"
)

// ErrUnknownFormat is returned for an input format other than csv, parquet
// or postgres.
var ErrUnknownFormat = errors.New("unknown input format")

// Source describes where the prescribing records come from.
type Source struct {
	Format    string // csv, parquet or postgres
	Path      string
	CSV       *prescribing.CSVOptions
	Postgres  string // connection string
	Table     string
	Substance string // keep only this substance when set
	Region    string // keep only this region when set
}

// Load reads the records described by src and applies its filters.
func Load(ctx context.Context, src Source) ([]prescribing.Record, error) {
	var (
		records []prescribing.Record
		err     error
	)

	switch strings.ToLower(src.Format) {
	case "csv", "":
		records, err = prescribing.LoadCSV(src.Path, src.CSV)
	case "parquet":
		records, err = prescribing.LoadParquet(src.Path)
	case "postgres":
		records, err = loadPostgres(ctx, src.Postgres, src.Table)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, src.Format)
	}
	if err != nil {
		return nil, err
	}

	if src.Substance != "" {
		records = prescribing.Filter(records, prescribing.BySubstance(src.Substance))
	}
	if src.Region != "" {
		records = prescribing.Filter(records, prescribing.ByRegion(src.Region))
	}
	if len(records) == 0 {
		return nil, prescribing.ErrEmptyInput
	}
	return records, nil
}

func loadPostgres(ctx context.Context, dsn, table string) ([]prescribing.Record, error) {
	if dsn == "" {
		return nil, errors.New("postgres input needs a connection string")
	}
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer conn.Close(ctx)

	return prescribing.LoadPostgres(ctx, conn, table)
}
