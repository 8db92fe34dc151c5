// Package prescribing loads and aggregates regional prescribing records.
package prescribing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sartorproj/rxforecast/timeseries"
)

// ErrEmptyInput is returned when an aggregation receives no records.
var ErrEmptyInput = errors.New("no records to aggregate")

// Record is one row of the regional drug summary: the items dispensed and
// their cost for one substance, region and month.
type Record struct {
	Year      int               `parquet:"YEAR" db:"year"`
	Period    timeseries.Period `parquet:"YEAR_MONTH" db:"year_month"`
	Region    string            `parquet:"REGION_NAME" db:"region_name"`
	Substance string            `parquet:"BNF_CHEMICAL_SUBSTANCE" db:"bnf_chemical_substance"`
	Items     float64           `parquet:"ITEMS" db:"items"`
	Cost      float64           `parquet:"COST" db:"cost"`
}

// Measure selects the numeric field of a Record to aggregate.
type Measure int

const (
	Items Measure = iota
	Cost
)

// Of returns the measured quantity of r.
func (m Measure) Of(r Record) float64 {
	if m == Cost {
		return r.Cost
	}
	return r.Items
}

func (m Measure) String() string {
	if m == Cost {
		return "COST"
	}
	return "ITEMS"
}

// ParseMeasure accepts "items" or "cost" in any case.
func ParseMeasure(s string) (Measure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "items":
		return Items, nil
	case "cost":
		return Cost, nil
	}
	return 0, fmt.Errorf("unknown measure %q (want items or cost)", s)
}

// Filter returns the records for which keep returns true.
func Filter(records []Record, keep func(Record) bool) []Record {
	var out []Record
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// BySubstance matches records for one chemical substance.
func BySubstance(name string) func(Record) bool {
	return func(r Record) bool { return r.Substance == name }
}

// ByRegion matches records for one region.
func ByRegion(name string) func(Record) bool {
	return func(r Record) bool { return r.Region == name }
}
