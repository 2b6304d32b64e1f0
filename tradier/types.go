package tradier

import (
	"bytes"

	"github.com/xhhuango/json"
)

type HistoryDay struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type QuoteHistory struct {
	History *struct {
		Day Days `json:"day"`
	} `json:"history"`
}

// Days accepts both shapes Tradier uses for "day": a single object when the
// range holds one bar, an array otherwise.
type Days []HistoryDay

func (d *Days) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var one HistoryDay
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*d = Days{one}
		return nil
	}
	var many []HistoryDay
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*d = many
	return nil
}

type Quote struct {
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Last       float64 `json:"last"`
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	Strike     float64 `json:"strike"`
	Underlying string  `json:"underlying"`
	OptionType string  `json:"option_type"`
	Expiration string  `json:"expiration_date"`
	Greeks     *struct {
		MidIv float64 `json:"mid_iv"`
	} `json:"greeks"`
}

// Mid is the bid/ask midpoint, or the last trade when either side is missing.
func (q Quote) Mid() float64 {
	if q.Bid > 0 && q.Ask > 0 {
		return (q.Bid + q.Ask) / 2
	}
	return q.Last
}

type QuotesResponse struct {
	Quotes struct {
		Quote Quotes `json:"quote"`
	} `json:"quotes"`
}

// Quotes has the same single-object-or-array shape as Days.
type Quotes []Quote

func (q *Quotes) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var one Quote
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*q = Quotes{one}
		return nil
	}
	var many []Quote
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*q = many
	return nil
}
