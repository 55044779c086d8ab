package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	xhttp "FinSignal/pkg/http"

	"github.com/shopspring/decimal"
)

const (
	categoryLinear  = "linear"
	instrumentsPath = "/v5/market/instruments-info"
	klinePath       = "/v5/market/kline"
	pageLimit       = "1000"
	maxKlineLimit   = 1000
)

// Client implements MarketData against the Bybit v5 public REST API.
type Client struct {
	baseURL string
	http    *xhttp.Client
}

// New creates a Bybit market-data client.
func New(baseURL string, timeout time.Duration) drepo.MarketData {
	return &Client{
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type envelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

type instrument struct {
	Symbol       string `json:"symbol"`
	ContractType string `json:"contractType"`
	Status       string `json:"status"`
	SettleCoin   string `json:"settleCoin"`
}

type instrumentsResult struct {
	List           []instrument `json:"list"`
	NextPageCursor string       `json:"nextPageCursor"`
}

type klineResult struct {
	Symbol string     `json:"symbol"`
	List   [][]string `json:"list"`
}

// ListInstruments returns every trading USDT-settled linear perpetual, following pagination.
func (c *Client) ListInstruments(ctx context.Context) ([]string, error) {
	var (
		symbols []string
		cursor  string
	)
	for {
		params := map[string][]string{
			"category": {categoryLinear},
			"limit":    {pageLimit},
		}
		if cursor != "" {
			params["cursor"] = []string{cursor}
		}

		var res instrumentsResult
		if err := c.get(ctx, instrumentsPath, params, &res); err != nil {
			return nil, fmt.Errorf("list instruments: %w", err)
		}
		for _, in := range res.List {
			if in.ContractType == "LinearPerpetual" && in.SettleCoin == "USDT" && in.Status == "Trading" {
				symbols = append(symbols, in.Symbol)
			}
		}
		if res.NextPageCursor == "" || res.NextPageCursor == cursor || len(res.List) == 0 {
			return symbols, nil
		}
		cursor = res.NextPageCursor
	}
}

// FetchBars returns klines newest-first, as Bybit delivers them.
func (c *Client) FetchBars(ctx context.Context, symbol string, interval drepo.Interval, count int) ([]models.Bar, error) {
	if count <= 0 {
		return nil, nil
	}
	if count > maxKlineLimit {
		count = maxKlineLimit
	}

	var res klineResult
	err := c.get(ctx, klinePath, map[string][]string{
		"category": {categoryLinear},
		"symbol":   {symbol},
		"interval": {string(interval)},
		"limit":    {strconv.Itoa(count)},
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("kline %s/%s: %w", symbol, interval, err)
	}

	bars := make([]models.Bar, 0, len(res.List))
	for i, row := range res.List {
		b, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("kline %s/%s row %d: %w", symbol, interval, i, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	resp, err := c.http.Do(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: params,
		Headers:     map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, resp.Snippet(200))
	}

	var env envelope
	if err := resp.DecodeJSON(&env); err != nil {
		return err
	}
	if env.RetCode != 0 {
		return fmt.Errorf("bybit retCode %d: %s", env.RetCode, env.RetMsg)
	}
	if len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, dest); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// parseKline reads [startTime, open, high, low, close, volume, turnover].
func parseKline(row []string) (models.Bar, error) {
	if len(row) < 6 {
		return models.Bar{}, fmt.Errorf("expected at least 6 fields, got %d", len(row))
	}
	ms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return models.Bar{}, fmt.Errorf("start time %q: %w", row[0], err)
	}

	var vals [5]float64
	for i := range vals {
		d, err := decimal.NewFromString(row[i+1])
		if err != nil {
			return models.Bar{}, fmt.Errorf("field %d %q: %w", i+1, row[i+1], err)
		}
		vals[i] = d.InexactFloat64()
	}

	return models.Bar{
		Timestamp: time.UnixMilli(ms).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}
