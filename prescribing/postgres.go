package prescribing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrInvalidTable is returned for table names that are not plain
// (optionally schema-qualified) identifiers.
var ErrInvalidTable = errors.New("invalid table name")

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Querier is satisfied by *pgx.Conn and *pgxpool.Pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresQuery builds the SELECT used by LoadPostgres for table, which may
// be "name" or "schema.name".
func PostgresQuery(table string) (string, error) {
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	for _, p := range parts {
		if !identRE.MatchString(p) {
			return "", fmt.Errorf("%w: %q", ErrInvalidTable, table)
		}
	}

	return fmt.Sprintf(`SELECT year::int8 AS year,
       year_month::int8 AS year_month,
       region_name,
       bnf_chemical_substance,
       items::float8 AS items,
       cost::float8 AS cost
FROM %s
ORDER BY year_month`, pgx.Identifier(parts).Sanitize()), nil
}

// LoadPostgres reads every row of table into Records.
func LoadPostgres(ctx context.Context, q Querier, table string) ([]Record, error) {
	sql, err := PostgresQuery(table)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[Record])
	if err != nil {
		return nil, fmt.Errorf("collect %s rows: %w", table, err)
	}
	return records, nil
}
