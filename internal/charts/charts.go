// Package charts draws the dashboard charts of an analysis result as PNG
// images.
package charts

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/arty021/bad-modems/internal/report"
)

// Kind selects one of the four dashboard charts.
type Kind string

const (
	Amp    Kind = "amp"
	Node   Kind = "on"
	Dss    Kind = "dss"
	Health Kind = "health"
)

// Kinds lists every chart in the order the dashboard draws them.
var Kinds = []Kind{Amp, Node, Dss, Health}

// ErrNoData is returned when the result has nothing to draw for a chart.
var ErrNoData = errors.New("charts: nothing to draw")

var ErrUnknownKind = errors.New("charts: unknown chart kind")

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

const (
	defaultWidth  = 1024
	defaultHeight = 480
	barWidth      = 36
)

var (
	palette = []drawing.Color{
		drawing.ColorFromHex("667eea"),
		drawing.ColorFromHex("764ba2"),
		drawing.ColorFromHex("f5576c"),
		drawing.ColorFromHex("f093fb"),
		drawing.ColorFromHex("4facfe"),
		drawing.ColorFromHex("00f2fe"),
	}
	newEntryColor = drawing.ColorFromHex("4cd964")
	uspColor      = drawing.ColorFromHex("667eea")
	dspColor      = drawing.ColorFromHex("f5576c")
	dssColor      = drawing.ColorFromHex("f093fb")
	healthyColor  = drawing.ColorFromHex("34c759")
	powerColor    = drawing.ColorFromHex("ff3b30")
	signalColor   = drawing.ColorFromHex("ffcc00")
)

// Render writes the chart of the given kind for res to w as a PNG.
func Render(kind Kind, res *report.Result, w io.Writer) error {
	if res == nil {
		return ErrNoData
	}
	switch kind {
	case Amp:
		return renderAmp(res, w)
	case Node:
		return renderNodes(res, w)
	case Dss:
		return renderDss(res, w)
	case Health:
		return renderHealth(res, w)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
}

// Label returns the axis label of a table entry, prefixed when the entry is
// new since the previous upload.
func Label(name string, isNew bool) string {
	if isNew {
		return "NEW " + name
	}
	return name
}

func barStyle(col drawing.Color) chart.Style {
	return chart.Style{
		FillColor:   col.WithAlpha(204),
		StrokeColor: col,
		StrokeWidth: 1,
	}
}

func renderAmp(res *report.Result, w io.Writer) error {
	if len(res.TopAmp) == 0 {
		return ErrNoData
	}
	bars := make([]chart.Value, 0, len(res.TopAmp))
	for i, row := range res.TopAmp {
		col := palette[i%len(palette)]
		if row.IsNew {
			col = newEntryColor
		}
		bars = append(bars, chart.Value{
			Label: Label(row.AmpCode, row.IsNew),
			Value: float64(row.BadCount),
			Style: barStyle(col),
		})
	}
	return barChart("Top 10 AMP - bad modems", bars, w)
}

func renderDss(res *report.Result, w io.Writer) error {
	if len(res.TopDss) == 0 {
		return ErrNoData
	}
	bars := make([]chart.Value, 0, len(res.TopDss))
	for _, row := range res.TopDss {
		col := dssColor
		if row.IsNew {
			col = newEntryColor
		}
		bars = append(bars, chart.Value{
			Label: Label(row.OnNode, row.IsNew),
			Value: float64(row.BadCount),
			Style: barStyle(col),
		})
	}
	return barChart("Top 20 ON - DSS issues", bars, w)
}

func barChart(title string, bars []chart.Value, w io.Writer) error {
	top := 0.0
	for _, b := range bars {
		top = max(top, b.Value)
	}
	graph := chart.BarChart{
		Title:      title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		// A fixed range from zero keeps equal-valued bars drawable.
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: top + 1}},
		Bars:  bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %s: %w", title, err)
	}
	return nil
}

// renderNodes stacks the USP and DSP issue counts of every ON node.
func renderNodes(res *report.Result, w io.Writer) error {
	if len(res.TopOn) == 0 {
		return ErrNoData
	}
	bars := make([]chart.StackedBar, 0, len(res.TopOn))
	for _, row := range res.TopOn {
		usp, dsp := uspColor, dspColor
		if row.IsNew {
			usp, dsp = newEntryColor, newEntryColor.WithAlpha(160)
		}
		bars = append(bars, chart.StackedBar{
			Name: Label(row.OnNode, row.IsNew),
			Values: []chart.Value{
				{Label: "USP", Value: float64(row.UspCount), Style: barStyle(usp)},
				{Label: "DSP", Value: float64(row.DspCount), Style: barStyle(dsp)},
			},
		})
	}
	graph := chart.StackedBarChart{
		Title:      "Top 10 ON - USP/DSP issues",
		Width:      defaultWidth,
		Height:     defaultHeight,
		BarSpacing: 24,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Bars:       bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render on chart: %w", err)
	}
	return nil
}

// renderHealth splits the modem population into healthy, power issues and
// DSS-only issues.
func renderHealth(res *report.Result, w io.Writer) error {
	s := res.Summary
	if s.TotalModems <= 0 {
		return ErrNoData
	}
	values := []chart.Value{
		{Label: "Healthy", Value: float64(s.Healthy()), Style: barStyle(healthyColor)},
		{Label: "USP/DSP", Value: float64(s.UspDspCount), Style: barStyle(powerColor)},
		{Label: "DSS only", Value: float64(s.DssOnly()), Style: barStyle(signalColor)},
	}
	nonZero := values[:0]
	for _, v := range values {
		if v.Value > 0 {
			nonZero = append(nonZero, v)
		}
	}
	if len(nonZero) == 0 {
		return ErrNoData
	}
	graph := chart.PieChart{
		Title:  "Network health",
		Width:  defaultHeight,
		Height: defaultHeight,
		Values: nonZero,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render health chart: %w", err)
	}
	return nil
}
