package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/indicators"
)

func series(n int) ([]models.Bar, []models.IndicatorSnapshot) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 1.08 + 0.002*math.Sin(float64(i)/3) + 0.0001*float64(i)
		bars[i] = models.Bar{Timestamp: start.Add(time.Duration(i) * time.Minute), Open: c, High: c + 0.0004, Low: c - 0.0004, Close: c}
	}
	snaps, err := indicators.NewEngine().Compute(bars)
	if err != nil {
		panic(err)
	}
	return bars, snaps
}

func TestBuildRowCount(t *testing.T) {
	for _, n := range []int{56, 57, 60, 100} {
		bars, snaps := series(n)
		ds, err := NewBuilder().Build(bars, snaps)
		if err != nil {
			t.Fatalf("build %d: %v", n, err)
		}
		if want := n - 56 + 1; ds.Len() != want {
			t.Fatalf("n=%d: got %d rows, want %d", n, ds.Len(), want)
		}
		if ds.Index[0] != WindowMin || ds.Index[ds.Len()-1] != n-6 {
			t.Fatalf("n=%d: unexpected index range %d..%d", n, ds.Index[0], ds.Index[ds.Len()-1])
		}
	}
}

func TestBuildInsufficientHistory(t *testing.T) {
	bars, snaps := series(55)
	ds, err := NewBuilder().Build(bars, snaps)
	if !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
	if ds != nil {
		t.Fatalf("expected no rows")
	}
}

func TestBuildTargetsAndReturns(t *testing.T) {
	bars, snaps := series(70)
	ds, err := NewBuilder().Build(bars, snaps)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	row, i := ds.X[3], ds.Index[3]
	if row[6] != bars[i].Close {
		t.Fatalf("close column mismatch")
	}
	wantRet5 := (bars[i].Close - bars[i-5].Close) / bars[i-5].Close * 100
	if row[8] != wantRet5 {
		t.Fatalf("return_5 = %v, want %v", row[8], wantRet5)
	}
	wantT5 := (bars[i+5].Close - bars[i].Close) / bars[i].Close * 100
	if ds.Target5[3] != wantT5 {
		t.Fatalf("target_5 = %v, want %v", ds.Target5[3], wantT5)
	}
	if !Finite(row) {
		t.Fatalf("row should be finite: %v", row)
	}
}

func TestBuildPrefixCausality(t *testing.T) {
	bars, snaps := series(90)
	full, err := NewBuilder().Build(bars, snaps)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// the row at bar 60 needs bars up to 65
	cut := 66
	pbars := bars[:cut]
	psnaps, err := indicators.NewEngine().Compute(pbars)
	if err != nil {
		t.Fatalf("compute prefix: %v", err)
	}
	prefix, err := NewBuilder().Build(pbars, psnaps)
	if err != nil {
		t.Fatalf("build prefix: %v", err)
	}
	last := prefix.Len() - 1
	if prefix.Index[last] != 60 || full.Index[10] != 60 {
		t.Fatalf("unexpected alignment")
	}
	for j := range prefix.X[last] {
		if prefix.X[last][j] != full.X[10][j] {
			t.Fatalf("feature %s differs: %v vs %v", Names[j], prefix.X[last][j], full.X[10][j])
		}
	}
}

func TestLatestUsesFinalBar(t *testing.T) {
	bars, snaps := series(60)
	v, err := NewBuilder().Latest(bars, snaps)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(v) != Width || v[6] != bars[59].Close {
		t.Fatalf("unexpected latest vector %v", v)
	}
}
