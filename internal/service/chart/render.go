package chart

import (
	"errors"
	"fmt"
	"io"
	"time"

	"SignalDesk/internal/domain/models"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// ErrNotEnoughPoints is returned when the close series has fewer than two bars.
var ErrNotEnoughPoints = errors.New("chart: need at least two bars")

type Options struct {
	Title  string
	Width  int
	Height int
}

// line collects the available points of one indicator.
type line struct {
	xs []time.Time
	ys []float64
}

func (l *line) add(t time.Time, m models.Metric) {
	if m.Valid {
		l.xs = append(l.xs, t)
		l.ys = append(l.ys, m.Value)
	}
}

// RenderPNG draws close, SMA20 and the Bollinger bands for bars as a PNG.
// bars and snaps must be aligned. Indicator lines with fewer than two
// available points are left out.
func RenderPNG(w io.Writer, bars []models.Bar, snaps []models.IndicatorSnapshot, opts Options) error {
	if len(bars) < 2 {
		return ErrNotEnoughPoints
	}
	if len(snaps) != len(bars) {
		return fmt.Errorf("chart: %d bars but %d snapshots", len(bars), len(snaps))
	}

	closes := line{xs: make([]time.Time, 0, len(bars)), ys: make([]float64, 0, len(bars))}
	var sma, upper, lower line
	for i, b := range bars {
		closes.xs = append(closes.xs, b.Timestamp)
		closes.ys = append(closes.ys, b.Close)
		sma.add(b.Timestamp, snaps[i].SMA20)
		upper.add(b.Timestamp, snaps[i].BBUpper)
		lower.add(b.Timestamp, snaps[i].BBLower)
	}

	band := gochart.Style{
		StrokeColor:     gochart.ColorAlternateGray,
		StrokeDashArray: []float64{4.0, 4.0},
	}
	series := []gochart.Series{
		gochart.TimeSeries{
			Name:    "Close",
			XValues: closes.xs,
			YValues: closes.ys,
			Style:   gochart.Style{StrokeColor: gochart.ColorBlue, StrokeWidth: 2},
		},
	}
	if len(sma.xs) >= 2 {
		series = append(series, gochart.TimeSeries{
			Name:    "SMA 20",
			XValues: sma.xs,
			YValues: sma.ys,
			Style:   gochart.Style{StrokeColor: gochart.ColorOrange},
		})
	}
	if len(upper.xs) >= 2 && len(lower.xs) >= 2 {
		series = append(series,
			gochart.TimeSeries{Name: "BB upper", XValues: upper.xs, YValues: upper.ys, Style: band},
			gochart.TimeSeries{Name: "BB lower", XValues: lower.xs, YValues: lower.ys, Style: band},
		)
	}

	graph := gochart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: gochart.XAxis{
			Name:           "Time (UTC)",
			ValueFormatter: gochart.TimeHourValueFormatter,
		},
		YAxis: gochart.YAxis{
			Name: "Price",
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("chart: render: %w", err)
	}
	return nil
}
