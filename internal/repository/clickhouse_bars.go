package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	pkgch "SignalDesk/pkg/clickhouse"
	applogger "SignalDesk/pkg/logger"
)

// CHBarTables names the candle table for each timeframe.
type CHBarTables struct {
	M1  string `yaml:"m1" default:"market.candles_1m"`
	M5  string `yaml:"m5" default:"market.candles_5m"`
	M15 string `yaml:"m15" default:"market.candles_15m"`
}

var tableName = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)?$`)

// CHBarProvider reads recent candles from ClickHouse. It is a read-only
// market data provider; the service never writes bars back.
type CHBarProvider struct {
	db     *sql.DB
	tables CHBarTables
	l      *applogger.Logger
}

var _ domrepo.MarketDataProvider = (*CHBarProvider)(nil)

func NewCHBarProvider(ch *pkgch.Client, tables CHBarTables) (*CHBarProvider, error) {
	for _, t := range []string{tables.M1, tables.M5, tables.M15} {
		if !tableName.MatchString(t) {
			return nil, fmt.Errorf("clickhouse: invalid table name %q", t)
		}
	}
	return &CHBarProvider{db: ch.DB(), tables: tables}, nil
}

// SetLogger injects a structured logger.
func (s *CHBarProvider) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHBarProvider) Name() string { return "clickhouse" }

func (s *CHBarProvider) LatestBars(ctx context.Context, asset models.Asset, tf domrepo.Timeframe, n int) ([]models.Bar, error) {
	start := time.Now()
	symbol := asset.ClickHouse
	if symbol == "" {
		symbol = asset.Key
	}
	table := s.tables.forTF(tf)

	const qtpl = `
        SELECT bucket, open, high, low, close, vol
        FROM %s
        WHERE symbol = ?
        ORDER BY bucket DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, table), symbol, n)
	if err != nil {
		s.logError("clickhouse latest_bars query error", table, symbol, tf, err)
		return nil, fmt.Errorf("clickhouse latest bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, n)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			s.logError("clickhouse latest_bars scan error", table, symbol, tf, err)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		s.logError("clickhouse latest_bars rows error", table, symbol, tf, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("clickhouse: no bars for %s in %s", symbol, table)
	}

	if s.l != nil {
		s.l.Debug("clickhouse latest_bars ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	// order is restored by the normalizer
	return out, nil
}

func (s *CHBarProvider) logError(msg, table, symbol string, tf domrepo.Timeframe, err error) {
	if s.l == nil {
		return
	}
	s.l.Error(msg,
		applogger.String("table", table),
		applogger.String("symbol", symbol),
		applogger.String("tf", tf.String()),
		applogger.Error(err),
	)
}

func (t CHBarTables) forTF(tf domrepo.Timeframe) string {
	switch tf {
	case domrepo.TF5m:
		return t.M5
	case domrepo.TF15m:
		return t.M15
	default:
		return t.M1
	}
}
