package marketdata

import (
	"math"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
)

var t0 = time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)

func bar(min int, c float64) models.Bar {
	return models.Bar{Timestamp: t0.Add(time.Duration(min) * time.Minute), Open: c, High: c, Low: c, Close: c}
}

func TestNormalizeSortsAndDedupes(t *testing.T) {
	raw := []models.Bar{bar(2, 3), bar(0, 1), bar(1, 2), bar(1, 2.5)}
	got := NewNormalizer(0).Normalize(raw)
	if len(got) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatalf("timestamps not strictly ascending at %d", i)
		}
	}
	if got[1].Close != 2.5 {
		t.Fatalf("duplicate should keep last occurrence, got %v", got[1].Close)
	}
}

func TestNormalizeDropsInvalidCloses(t *testing.T) {
	raw := []models.Bar{bar(0, 1), bar(1, math.NaN()), bar(2, 0), bar(3, -4), bar(4, math.Inf(1)), bar(5, 2)}
	got := NewNormalizer(0).Normalize(raw)
	if len(got) != 2 || got[0].Close != 1 || got[1].Close != 2 {
		t.Fatalf("unexpected bars %+v", got)
	}
}

func TestNormalizeRepairsBounds(t *testing.T) {
	b := models.Bar{Timestamp: t0.In(time.FixedZone("X", 3600)), Open: 10, High: 9, Low: 11, Close: 10.5, Volume: math.NaN()}
	got := NewNormalizer(0).Normalize([]models.Bar{b})
	if len(got) != 1 {
		t.Fatalf("expected 1 bar")
	}
	r := got[0]
	if r.High != 10.5 || r.Low != 10 || r.Volume != 0 {
		t.Fatalf("unexpected repair %+v", r)
	}
	if r.Timestamp.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp")
	}
}

func TestNormalizeKeepsTail(t *testing.T) {
	raw := make([]models.Bar, 0, 150)
	for i := 0; i < 150; i++ {
		raw = append(raw, bar(i, float64(i+1)))
	}
	got := NewNormalizer(100).Normalize(raw)
	if len(got) != 100 {
		t.Fatalf("expected 100 bars, got %d", len(got))
	}
	if got[0].Close != 51 || got[99].Close != 150 {
		t.Fatalf("expected most recent bars, got %v..%v", got[0].Close, got[99].Close)
	}
}
