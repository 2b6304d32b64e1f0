package marketdata

import (
	"context"
	"sort"
	"time"

	"github.com/bcdannyboy/varisk/models"
)

// Quote is one daily bar
type Quote struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// Provider fetches daily quotes for a symbol, returned oldest first.
type Provider interface {
	GetQuotes(ctx context.Context, symbol string, start, end time.Time) ([]Quote, error)
}

// SortOldestFirst orders quotes by date ascending in place.
func SortOldestFirst(quotes []Quote) {
	sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].Date.Before(quotes[j].Date) })
}

// ClosingPrices converts provider quotes into a newest-first price series.
// The adjusted close is preferred when the provider supplies one.
func ClosingPrices(quotes []Quote) models.PriceSeries {
	prices := make(models.PriceSeries, len(quotes))
	for i, q := range quotes {
		price := q.Close
		if q.AdjClose > 0 {
			price = q.AdjClose
		}
		prices[len(quotes)-1-i] = price
	}
	return prices
}
