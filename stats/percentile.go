package stats

import (
	"math"
	"sort"

	"github.com/bcdannyboy/varisk/models"
)

// Percentile returns the (100-confidence)th percentile of data. It sorts a private
// copy, so callers may pass unsorted slices and their order is left intact.
//
// The estimate interpolates between order statistics at position p(n+1)/100,
// clamping to the minimum and maximum at either end.
func Percentile(data []float64, confidence float64) (float64, error) {
	if len(data) == 0 {
		return 0, models.InvalidInput("data", 0, "percentile of empty data")
	}
	if confidence < 0 || confidence >= 100 {
		return 0, models.InvalidInput("confidence", confidence, "confidence must be in [0, 100)")
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return percentileSorted(sorted, 100-confidence), nil
}

func percentileSorted(sorted []float64, p float64) float64 {
	n := float64(len(sorted))
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * (n + 1) / 100
	if pos < 1 {
		return sorted[0]
	}
	if pos >= n {
		return sorted[len(sorted)-1]
	}
	fpos := math.Floor(pos)
	d := pos - fpos
	lower := sorted[int(fpos)-1]
	upper := sorted[int(fpos)]
	return lower + d*(upper-lower)
}
