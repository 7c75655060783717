package repository

import (
	"testing"

	domrepo "SignalDesk/internal/domain/repository"
	pkgch "SignalDesk/pkg/clickhouse"
)

func TestCHBarTablesForTF(t *testing.T) {
	tables := CHBarTables{M1: "m.c1", M5: "m.c5", M15: "m.c15"}
	cases := map[domrepo.Timeframe]string{
		domrepo.TF1m:  "m.c1",
		domrepo.TF5m:  "m.c5",
		domrepo.TF15m: "m.c15",
	}
	for tf, want := range cases {
		if got := tables.forTF(tf); got != want {
			t.Fatalf("%s: got %s want %s", tf, got, want)
		}
	}
}

func TestNewCHBarProviderRejectsTableNames(t *testing.T) {
	_, err := NewCHBarProvider(&pkgch.Client{}, CHBarTables{M1: "candles; DROP TABLE x", M5: "a", M15: "b"})
	if err == nil {
		t.Fatalf("expected invalid table name error")
	}
}
