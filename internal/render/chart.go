// Package render draws price charts for analysed series.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"StockPulse/internal/calculator"
	"StockPulse/internal/model"
)

// Session holds the chart configuration for one caller. It carries no
// series state; every Render call draws from its arguments only.
type Session struct {
	Width       int
	Height      int
	TimeFormat  string
	CloseColor  string
	SMA5Color   string
	SMA20Color  string
	SMA60Color  string
	ShowLegend  bool
	ShowVolumes bool
}

// NewSession returns a session with the default size and palette.
func NewSession() *Session {
	return &Session{
		Width:       900,
		Height:      400,
		TimeFormat:  "01-02",
		CloseColor:  "111827", // gray-900
		SMA5Color:   "f59e0b", // amber-500
		SMA20Color:  "2563eb", // blue-600
		SMA60Color:  "9333ea", // purple-600
		ShowLegend:  true,
		ShowVolumes: true,
	}
}

// Render draws the close line with SMA5/20/60 overlays and returns PNG bytes.
func (s *Session) Render(series *model.Series, set calculator.IndicatorSet) ([]byte, error) {
	if series == nil || len(series.Candles) < 2 {
		return nil, fmt.Errorf("need at least 2 candles to draw a chart")
	}

	xValues := make([]time.Time, len(series.Candles))
	for i, c := range series.Candles {
		xValues[i] = time.Unix(c.Time, 0)
	}
	closes := model.Closes(series.Candles)

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s %s", series.Symbol, series.Interval),
		Width:  s.Width,
		Height: s.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format(s.TimeFormat)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Close",
				Style:   chart.Style{StrokeColor: drawing.ColorFromHex(s.CloseColor), StrokeWidth: 2},
				XValues: xValues,
				YValues: closes,
			},
		},
	}

	for _, overlay := range []struct {
		name   string
		color  string
		points model.IndicatorSeries
	}{
		{"MA5", s.SMA5Color, set.SMA5},
		{"MA20", s.SMA20Color, set.SMA20},
		{"MA60", s.SMA60Color, set.SMA60},
	} {
		// go-chart needs at least two points per series.
		if len(overlay.points) < 2 {
			continue
		}
		graph.Series = append(graph.Series, indicatorSeries(overlay.name, overlay.color, overlay.points))
	}

	if s.ShowVolumes && len(series.Volumes) == len(series.Candles) && volumeVaries(series.Volumes) {
		graph.Series = append(graph.Series, volumeSeries(series, xValues))
	}

	if s.ShowLegend {
		graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func indicatorSeries(name, color string, points model.IndicatorSeries) chart.TimeSeries {
	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = time.Unix(p.Time, 0)
		ys[i] = p.Value
	}
	return chart.TimeSeries{
		Name:    name,
		Style:   chart.Style{StrokeColor: drawing.ColorFromHex(color), StrokeWidth: 1.5},
		XValues: xs,
		YValues: ys,
	}
}

// volumeVaries reports whether the volume axis has a non-zero range; go-chart
// rejects a flat axis.
func volumeVaries(volumes []model.VolumeBar) bool {
	for _, v := range volumes[1:] {
		if v.Value != volumes[0].Value {
			return true
		}
	}
	return false
}

// volumeSeries plots volume on the secondary axis.
func volumeSeries(series *model.Series, xValues []time.Time) chart.TimeSeries {
	ys := make([]float64, len(series.Volumes))
	for i, v := range series.Volumes {
		ys[i] = v.Value
	}
	return chart.TimeSeries{
		Name:    "Volume",
		YAxis:   chart.YAxisSecondary,
		Style:   chart.Style{StrokeColor: drawing.ColorFromHex("9ca3af"), StrokeWidth: 1, StrokeDashArray: []float64{4.0, 2.0}},
		XValues: xValues,
		YValues: ys,
	}
}
