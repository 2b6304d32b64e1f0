package tradier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bcdannyboy/varisk/marketdata"
	"github.com/xhhuango/json"
)

const DefaultBaseURL = "https://api.tradier.com"

// Client reads market data from the Tradier brokerage API
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(token string) *Client {
	return &Client{BaseURL: DefaultBaseURL, Token: token, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := fmt.Sprintf("%s%s?%s", strings.TrimRight(c.BaseURL, "/"), path, q.Encode())
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	r.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	r.Header.Add("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(r)
	if err != nil {
		return fmt.Errorf("tradier request failed: %w", err)
	}
	defer resp.Body.Close()

	responseData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response data: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tradier %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(responseData)))
	}
	if err := json.Unmarshal(responseData, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// GetQuotes fetches daily bars between start and end, oldest first.
func (c *Client) GetQuotes(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.Quote, error) {
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("interval", "daily")
	if !start.IsZero() {
		q.Set("start", start.Format("2006-01-02"))
	}
	if !end.IsZero() {
		q.Set("end", end.Format("2006-01-02"))
	}
	q.Set("session_filter", "all")

	quoteHistory := &QuoteHistory{}
	if err := c.get(ctx, "/v1/markets/history", q, quoteHistory); err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}
	if quoteHistory.History == nil {
		return nil, nil
	}

	quotes := make([]marketdata.Quote, 0, len(quoteHistory.History.Day))
	for _, d := range quoteHistory.History.Day {
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse history date: %w", err)
		}
		quotes = append(quotes, marketdata.Quote{
			Date:   date,
			Open:   d.Open,
			High:   d.High,
			Low:    d.Low,
			Close:  d.Close,
			Volume: d.Volume,
		})
	}
	marketdata.SortOldestFirst(quotes)
	return quotes, nil
}

// GetQuote fetches the current quote of a stock or an OCC option symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	q := url.Values{}
	q.Set("symbols", strings.ToUpper(symbol))
	q.Set("greeks", "true")

	resp := &QuotesResponse{}
	if err := c.get(ctx, "/v1/markets/quotes", q, resp); err != nil {
		return Quote{}, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	if len(resp.Quotes.Quote) == 0 {
		return Quote{}, fmt.Errorf("no quote for %s", symbol)
	}
	return resp.Quotes.Quote[0], nil
}
