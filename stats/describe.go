package stats

import (
	mstats "github.com/montanaflynn/stats"
)

// Summary is a five-number summary plus mean and sample standard deviation.
type Summary struct {
	N      int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe summarises data. It fails on an empty slice.
func Describe(data []float64) (*Summary, error) {
	d := mstats.Float64Data(data)

	mean, err := d.Mean()
	if err != nil {
		return nil, err
	}
	minimum, err := d.Min()
	if err != nil {
		return nil, err
	}
	maximum, err := d.Max()
	if err != nil {
		return nil, err
	}
	median, err := d.Median()
	if err != nil {
		return nil, err
	}

	// Quartiles and the sample deviation need at least two values.
	quartiles := mstats.Quartiles{Q1: median, Q2: median, Q3: median}
	std := 0.0
	if len(data) > 1 {
		if quartiles, err = mstats.Quartile(d); err != nil {
			return nil, err
		}
		if std, err = d.StandardDeviationSample(); err != nil {
			return nil, err
		}
	}

	return &Summary{
		N:      len(data),
		Mean:   mean,
		Std:    std,
		Min:    minimum,
		Q1:     quartiles.Q1,
		Median: median,
		Q3:     quartiles.Q3,
		Max:    maximum,
	}, nil
}
