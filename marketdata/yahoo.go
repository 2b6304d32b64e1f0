package marketdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xhhuango/json"
	"go.uber.org/zap"
)

var (
	DefaultYahooHosts    = []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}
	DefaultYahooBackoffs = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooClient reads daily bars from the Yahoo v8 chart API. Each attempt
// walks every host before backing off.
type YahooClient struct {
	HTTP     *http.Client
	Hosts    []string
	Backoffs []time.Duration
	Logger   *zap.Logger
}

func NewYahooClient(logger *zap.Logger) *YahooClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YahooClient{
		HTTP:     &http.Client{Timeout: 15 * time.Second},
		Hosts:    DefaultYahooHosts,
		Backoffs: DefaultYahooBackoffs,
		Logger:   logger,
	}
}

func (c *YahooClient) GetQuotes(ctx context.Context, symbol string, start, end time.Time) ([]Quote, error) {
	if end.IsZero() {
		end = time.Now()
	}
	var lastErr error
	for attempt := 0; attempt <= len(c.Backoffs); attempt++ {
		for _, host := range c.Hosts {
			quotes, err := c.fetch(ctx, host, symbol, start, end)
			if err == nil {
				return filterRange(quotes, start, end), nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.Logger.Warn("yahoo request failed", zap.String("host", host), zap.String("symbol", symbol), zap.Int("attempt", attempt), zap.Error(err))
		}
		if attempt < len(c.Backoffs) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.Backoffs[attempt]):
			}
		}
	}
	return nil, fmt.Errorf("failed to fetch %s from yahoo: %w", symbol, lastErr)
}

func (c *YahooClient) fetch(ctx context.Context, host, symbol string, start, end time.Time) ([]Quote, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", strings.TrimRight(host, "/"), url.PathEscape(strings.ToUpper(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read yahoo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s returned %d: %s", host, resp.StatusCode, preview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return nil, fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}

	var yc yahooChartResp
	if err := json.Unmarshal(body, &yc); err != nil {
		return nil, fmt.Errorf("failed to parse yahoo json: %w", err)
	}
	if yc.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error %s: %s", yc.Chart.Error.Code, yc.Chart.Error.Description)
	}
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.New("yahoo returned no data")
	}
	return chartQuotes(yc), nil
}

// chartQuotes zips the parallel arrays of a chart result, dropping bars
// without a close.
func chartQuotes(yc yahooChartResp) []Quote {
	res := yc.Chart.Result[0]
	bars := res.Indicators.Quote[0]
	var adj []float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}
	at := func(xs []float64, i int) float64 {
		if i < len(xs) {
			return xs[i]
		}
		return 0
	}
	quotes := make([]Quote, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if at(bars.Close, i) <= 0 {
			continue
		}
		q := Quote{
			Date:     time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:     at(bars.Open, i),
			High:     at(bars.High, i),
			Low:      at(bars.Low, i),
			Close:    bars.Close[i],
			AdjClose: at(adj, i),
		}
		if i < len(bars.Volume) {
			q.Volume = bars.Volume[i]
		}
		quotes = append(quotes, q)
	}
	SortOldestFirst(quotes)
	return quotes
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
