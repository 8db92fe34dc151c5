package prescribing

import (
	"math"
	"slices"

	"github.com/samber/lo"
)

// Pivot is a year x region table of totals.
type Pivot struct {
	Measure Measure
	Years   []int
	Regions []string
	Cells   [][]float64 // Cells[i][j] is Years[i] x Regions[j]
}

// RegionPivot sums measure per (year, region). Combinations without records
// hold 0.
func RegionPivot(records []Record, measure Measure) *Pivot {
	years := lo.Uniq(lo.Map(records, func(r Record, _ int) int { return r.Year }))
	regions := lo.Uniq(lo.Map(records, func(r Record, _ int) string { return r.Region }))
	slices.Sort(years)
	slices.Sort(regions)

	yearIdx := make(map[int]int, len(years))
	for i, y := range years {
		yearIdx[y] = i
	}
	regionIdx := make(map[string]int, len(regions))
	for j, r := range regions {
		regionIdx[r] = j
	}

	cells := make([][]float64, len(years))
	for i := range cells {
		cells[i] = make([]float64, len(regions))
	}
	for _, r := range records {
		cells[yearIdx[r.Year]][regionIdx[r.Region]] += measure.Of(r)
	}

	return &Pivot{
		Measure: measure,
		Years:   years,
		Regions: regions,
		Cells:   cells,
	}
}

// At returns the cell for year and region, or 0 if either is absent.
func (p *Pivot) At(year int, region string) float64 {
	i := slices.Index(p.Years, year)
	j := slices.Index(p.Regions, region)
	if i < 0 || j < 0 {
		return 0
	}
	return p.Cells[i][j]
}

// RowTotal sums row i across regions.
func (p *Pivot) RowTotal(i int) float64 {
	return lo.Sum(p.Cells[i])
}

// Min returns the smallest cell, for a global colour scale.
func (p *Pivot) Min() float64 {
	m := math.Inf(1)
	for _, row := range p.Cells {
		for _, v := range row {
			m = math.Min(m, v)
		}
	}
	return m
}

// Max returns the largest cell.
func (p *Pivot) Max() float64 {
	m := math.Inf(-1)
	for _, row := range p.Cells {
		for _, v := range row {
			m = math.Max(m, v)
		}
	}
	return m
}
