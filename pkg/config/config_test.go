package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Refresh.Interval != 60*time.Second || c.Refresh.Bars != 100 || c.Refresh.Timeframe != "1m" {
		t.Fatalf("unexpected refresh defaults %+v", c.Refresh)
	}
	if !c.Refresh.SyntheticFallback {
		t.Fatalf("synthetic fallback should default on")
	}
	if c.Analysis.AccountBalance != 10000 || c.Analysis.RiskPercent != 2 {
		t.Fatalf("unexpected analysis defaults %+v", c.Analysis)
	}
	if len(c.Assets) != 3 || c.Assets[0].Key != "EUR/USD" {
		t.Fatalf("unexpected default assets %+v", c.Assets)
	}
	if strings.Join(c.Providers.Order, ",") != "twelvedata,yahoo" {
		t.Fatalf("unexpected provider order %v", c.Providers.Order)
	}
	if c.Server.Port != 8000 || c.Cache.Backend != "memory" || c.Kafka.SignalsTopic != "signaldesk.signals" {
		t.Fatalf("unexpected ambient defaults")
	}
}

func TestLoadShippedFile(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Providers.ClickHouse.Tables.M5 != "market.candles_5m" || c.Assets[1].Yahoo != "GC=F" {
		t.Fatalf("file values not applied")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	p := writeFile(t, `
environment: staging
refresh:
  interval: 30s
  bars: 200
assets:
  - key: ETH/USD
    twelve_data: ETH/USD
`)
	t.Setenv("TWELVE_DATA_API_KEY", "secret")
	t.Setenv("REFRESH_TIMEFRAME", "5m")
	t.Setenv("PROVIDERS", "twelvedata,yahoo")

	c, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "staging" || c.Refresh.Interval != 30*time.Second || c.Refresh.Bars != 200 {
		t.Fatalf("file values not applied: %+v", c.Refresh)
	}
	if c.Refresh.FetchTimeout != 10*time.Second {
		t.Fatalf("defaults should survive a partial file, got %v", c.Refresh.FetchTimeout)
	}
	if c.Providers.TwelveData.APIKey != "secret" || c.Refresh.Timeframe != "5m" {
		t.Fatalf("env overrides not applied")
	}
	if len(c.Assets) != 1 || c.Assets[0].Key != "ETH/USD" {
		t.Fatalf("file assets should replace the defaults, got %+v", c.Assets)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"bad timeframe":     "refresh:\n  timeframe: 1h\n",
		"too few bars":      "refresh:\n  bars: 10\n",
		"unknown provider":  "providers:\n  order: [bloomberg]\n",
		"polygon no key":    "providers:\n  order: [polygon]\n",
		"kafka no brokers":  "kafka:\n  enabled: true\n  brokers: []\n",
		"collect w/o kafka": "logging:\n  collect: true\n",
		"duplicate asset":   "assets:\n  - key: A\n  - key: A\n",
		"bad cache backend": "cache:\n  backend: memcached\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
