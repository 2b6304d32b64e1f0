package volatility

import (
	"math"

	"github.com/bcdannyboy/varisk/marketdata"
	"github.com/bcdannyboy/varisk/models"
	"gonum.org/v1/gonum/stat"
)

// Range estimators work on OHLC bars ordered oldest first and return a daily
// (not annualized) volatility over the last `days` bars.

type RangeEstimator func(bars []marketdata.Quote) float64

var rangeEstimators = map[string]RangeEstimator{
	"parkinson":       Parkinson,
	"garman_klass":    GarmanKlass,
	"rogers_satchell": RogersSatchell,
	"yang_zhang":      YangZhang,
}

// RangeVolatility applies the named estimator to the trailing window.
func RangeVolatility(name string, quotes []marketdata.Quote, days int) (float64, error) {
	est, ok := rangeEstimators[name]
	if !ok {
		return 0, models.InvalidInput("volatility", name, "unknown range estimator")
	}
	if days < 2 || len(quotes) < days {
		return 0, models.InsufficientData("quotes", len(quotes), "need %d bars", days)
	}
	window := quotes[len(quotes)-days:]
	for _, q := range window {
		if q.Open <= 0 || q.High <= 0 || q.Low <= 0 || q.Close <= 0 {
			return 0, models.InvalidInput("quote", q.Date, "bar has a non-positive price")
		}
	}
	return est(window), nil
}

func Parkinson(bars []marketdata.Quote) float64 {
	sum := 0.0
	for _, b := range bars {
		hl := math.Log(b.High / b.Low)
		sum += hl * hl
	}
	return math.Sqrt(sum / (4 * float64(len(bars)) * math.Ln2))
}

func GarmanKlass(bars []marketdata.Quote) float64 {
	sum := 0.0
	for _, b := range bars {
		hl := math.Log(b.High / b.Low)
		co := math.Log(b.Close / b.Open)
		sum += 0.5*hl*hl - (2*math.Ln2-1)*co*co
	}
	return math.Sqrt(sum / float64(len(bars)))
}

func RogersSatchell(bars []marketdata.Quote) float64 {
	return math.Sqrt(rogersSatchellVariance(bars))
}

func rogersSatchellVariance(bars []marketdata.Quote) float64 {
	sum := 0.0
	for _, b := range bars {
		sum += math.Log(b.High/b.Close)*math.Log(b.High/b.Open) +
			math.Log(b.Low/b.Close)*math.Log(b.Low/b.Open)
	}
	return sum / float64(len(bars))
}

func YangZhang(bars []marketdata.Quote) float64 {
	n := float64(len(bars))
	k := 0.34 / (1.34 + (n+1)/(n-1))

	overnight := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		overnight = append(overnight, math.Log(bars[i].Open/bars[i-1].Close))
	}
	openClose := make([]float64, len(bars))
	for i, b := range bars {
		openClose[i] = math.Log(b.Close / b.Open)
	}

	return math.Sqrt(sampleVariance(overnight) + k*sampleVariance(openClose) + (1-k)*rogersSatchellVariance(bars))
}

func sampleVariance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.Variance(xs, nil)
}
