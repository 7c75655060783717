package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	xhttp "SignalDesk/pkg/http"
)

const (
	DefaultTwelveDataURL = "https://api.twelvedata.com"
	twelveDataLayout     = "2006-01-02 15:04:05"
	twelveDataDayLayout  = "2006-01-02"
)

// TwelveData reads intraday bars from the Twelve Data time_series endpoint.
type TwelveData struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

var _ domrepo.MarketDataProvider = (*TwelveData)(nil)

func NewTwelveData(baseURL, apiKey string, timeout time.Duration) *TwelveData {
	if baseURL == "" {
		baseURL = DefaultTwelveDataURL
	}
	return &TwelveData{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (p *TwelveData) Name() string { return "twelvedata" }

type twelveDataValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

type twelveDataResponse struct {
	Status  string            `json:"status"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Values  []twelveDataValue `json:"values"`
}

func (p *TwelveData) LatestBars(ctx context.Context, asset models.Asset, tf domrepo.Timeframe, n int) ([]models.Bar, error) {
	if p.apiKey == "" {
		return nil, errors.New("twelvedata: api key not configured")
	}
	symbol := asset.TwelveData
	if symbol == "" {
		symbol = asset.Key
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", tf.TwelveDataInterval())
	q.Set("outputsize", strconv.Itoa(n))
	q.Set("timezone", "UTC")
	q.Set("apikey", p.apiKey)

	var resp twelveDataResponse
	if err := p.client.GetJSON(ctx, p.baseURL+"/time_series", q, &resp); err != nil {
		return nil, fmt.Errorf("twelvedata %s: %w", symbol, err)
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("twelvedata %s: code %d: %s", symbol, resp.Code, resp.Message)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("twelvedata %s: no values", symbol)
	}

	bars := make([]models.Bar, 0, len(resp.Values))
	for _, v := range resp.Values {
		b, err := v.bar()
		if err != nil {
			return nil, fmt.Errorf("twelvedata %s: %w", symbol, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func (v twelveDataValue) bar() (models.Bar, error) {
	ts, err := time.ParseInLocation(twelveDataLayout, v.Datetime, time.UTC)
	if err != nil {
		if ts, err = time.ParseInLocation(twelveDataDayLayout, v.Datetime, time.UTC); err != nil {
			return models.Bar{}, fmt.Errorf("parse datetime %q: %w", v.Datetime, err)
		}
	}
	b := models.Bar{Timestamp: ts}
	if b.Open, err = parseNumber(v.Open); err != nil {
		return models.Bar{}, err
	}
	if b.High, err = parseNumber(v.High); err != nil {
		return models.Bar{}, err
	}
	if b.Low, err = parseNumber(v.Low); err != nil {
		return models.Bar{}, err
	}
	if b.Close, err = parseNumber(v.Close); err != nil {
		return models.Bar{}, err
	}
	// forex pairs carry no volume
	if v.Volume != "" {
		if b.Volume, err = parseNumber(v.Volume); err != nil {
			return models.Bar{}, err
		}
	}
	return b, nil
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	return f, nil
}
