package chart

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/indicators"
)

func bars(n int) []models.Bar {
	start := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)
	out := make([]models.Bar, n)
	for i := range out {
		c := 100 + 2*math.Sin(float64(i)/6)
		out[i] = models.Bar{Timestamp: start.Add(time.Duration(i) * time.Minute), Open: c, High: c + 0.2, Low: c - 0.2, Close: c}
	}
	return out
}

func TestRenderPNG(t *testing.T) {
	b := bars(80)
	snaps, err := indicators.NewEngine().Compute(b)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	var buf bytes.Buffer
	if err := RenderPNG(&buf, b, snaps, Options{Title: "EUR/USD", Width: 640, Height: 320}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("output is not a PNG")
	}
}

func TestRenderPNGErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, bars(1), make([]models.IndicatorSnapshot, 1), Options{}); !errors.Is(err, ErrNotEnoughPoints) {
		t.Fatalf("expected ErrNotEnoughPoints, got %v", err)
	}
	if err := RenderPNG(&buf, bars(5), make([]models.IndicatorSnapshot, 4), Options{}); err == nil {
		t.Fatalf("expected misaligned input error")
	}
}
