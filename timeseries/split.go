package timeseries

import (
	"errors"
	"fmt"
)

// ErrInvalidSplit is returned when a split would leave the training or the
// test side empty.
var ErrInvalidSplit = errors.New("invalid train/test split")

// Split partitions series into the prefix [0, trainSize) and the suffix
// [trainSize, n). Both sides must hold at least one observation.
func Split(series *Series, trainSize int) (train, test *Series, err error) {
	n := series.Len()
	if trainSize < 1 || trainSize > n-1 {
		return nil, nil, fmt.Errorf("%w: train size %d for %d observations (want 1..%d)",
			ErrInvalidSplit, trainSize, n, n-1)
	}
	return series.Slice(0, trainSize), series.Slice(trainSize, n), nil
}

// SplitTest holds out the last testSize observations.
func SplitTest(series *Series, testSize int) (train, test *Series, err error) {
	return Split(series, series.Len()-testSize)
}
