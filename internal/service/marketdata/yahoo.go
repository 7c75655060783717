package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	xhttp "SignalDesk/pkg/http"
)

const (
	DefaultYahooURL = "https://query1.finance.yahoo.com"
	yahooUserAgent  = "Mozilla/5.0 (compatible; signaldesk/1.0)"
)

// Yahoo reads bars from the public Yahoo Finance chart endpoint.
type Yahoo struct {
	baseURL string
	client  *xhttp.Client
}

var _ domrepo.MarketDataProvider = (*Yahoo)(nil)

func NewYahoo(baseURL string, timeout time.Duration) *Yahoo {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	return &Yahoo{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: xhttp.NewClient(
			xhttp.WithTimeout(timeout),
			xhttp.WithHeader("User-Agent", yahooUserAgent),
		),
	}
}

func (p *Yahoo) Name() string { return "yahoo" }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (p *Yahoo) LatestBars(ctx context.Context, asset models.Asset, tf domrepo.Timeframe, n int) ([]models.Bar, error) {
	symbol := asset.Yahoo
	if symbol == "" {
		return nil, fmt.Errorf("yahoo: no symbol mapped for %s", asset.Key)
	}

	q := url.Values{}
	q.Set("interval", tf.String())
	q.Set("range", yahooRange(tf))

	var resp yahooChartResponse
	if err := p.client.GetJSON(ctx, p.baseURL+"/v8/finance/chart/"+url.PathEscape(symbol), q, &resp); err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: empty chart", symbol)
	}

	r := resp.Chart.Result[0]
	quote := r.Indicators.Quote[0]
	bars := make([]models.Bar, 0, len(r.Timestamp))
	for i, sec := range r.Timestamp {
		c := at(quote.Close, i)
		if c == nil {
			continue
		}
		b := models.Bar{
			Timestamp: time.Unix(sec, 0).UTC(),
			Close:     *c,
			Open:      valueOr(at(quote.Open, i), *c),
			High:      valueOr(at(quote.High, i), *c),
			Low:       valueOr(at(quote.Low, i), *c),
			Volume:    valueOr(at(quote.Volume, i), 0),
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: no complete bars", symbol)
	}
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

// one trading day is not enough history for the wider timeframes
func yahooRange(tf domrepo.Timeframe) string {
	if tf == domrepo.TF1m {
		return "1d"
	}
	return "5d"
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
