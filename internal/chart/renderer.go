package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/nerrad567/bioreactor-core/internal/measurement"
)

// ErrEmptySeries is returned when asked to draw a series with no points.
var ErrEmptySeries = errors.New("chart: series has no points")

const (
	// TickLabelFormat labels x-axis ticks as hours and minutes.
	TickLabelFormat = "15:04"
	// DayTickLabelFormat labels day-spaced ticks as month and day.
	DayTickLabelFormat = "01-02"

	// titleTimeFormat renders the requested window bounds in the title.
	titleTimeFormat = "01-02 15:04"

	// leftMargin extends the x-axis before the first point, as a fraction of the span.
	leftMargin = 0.01
	// rightMargin leaves room after the last point.
	rightMargin = 0.05
	// yMargin pads the value axis above and below the data.
	yMargin = 0.05

	// singlePointPad is the x half-width used when every point shares one instant.
	singlePointPad = time.Minute

	// maxTicks bounds the number of labelled x ticks.
	maxTicks = 8
)

// tickSteps are the candidate x-axis tick spacings, smallest first.
var tickSteps = []time.Duration{
	time.Minute,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	time.Hour,
	2 * time.Hour,
	3 * time.Hour,
	6 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
}

var (
	seriesColor = gochart.ColorBlue
	gridStyle   = gochart.Style{
		StrokeColor:     drawing.ColorBlack.WithAlpha(77), // ~0.3 opacity
		StrokeWidth:     0.5,
		StrokeDashArray: []float64{4, 3},
	}
)

// Renderer draws measurement series as PNG line charts.
//
// It holds no per-request state and is safe for concurrent use.
type Renderer struct {
	width  int
	height int
}

// NewRenderer creates a renderer producing width x height pixel images.
func NewRenderer(width, height int) *Renderer {
	return &Renderer{width: width, height: height}
}

// Title builds "<series title> from MM-DD HH:MM to MM-DD HH:MM" from the
// requested window, not the data extent.
func Title(s measurement.Series, w measurement.Window) string {
	return fmt.Sprintf("%s from %s to %s",
		s.Title,
		w.From.Format(titleTimeFormat),
		w.To.Format(titleTimeFormat),
	)
}

// RenderPNG draws s and returns the encoded PNG.
//
// Parameters:
//   - s: Projected series, timestamps ascending
//   - w: Requested window, used for the title
//
// Returns:
//   - []byte: PNG image
//   - error: ErrEmptySeries, or a rendering failure
func (r *Renderer) RenderPNG(s measurement.Series, w measurement.Window) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, s, w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render draws s as PNG into out.
func (r *Renderer) Render(out io.Writer, s measurement.Series, w measurement.Window) error {
	if s.Len() == 0 {
		return ErrEmptySeries
	}
	if len(s.Values) != len(s.Timestamps) {
		return fmt.Errorf("chart: %d timestamps but %d values", len(s.Timestamps), len(s.Values))
	}

	xMin, xMax := xLimits(s.Timestamps)
	yMin, yMax := yLimits(s.Values)

	ch := gochart.Chart{
		Title:  Title(s, w),
		Width:  r.width,
		Height: r.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 10},
		},
		XAxis: gochart.XAxis{
			Name:           "Time",
			ValueFormatter: gochart.TimeValueFormatterWithFormat(TickLabelFormat),
			Range:          &gochart.ContinuousRange{Min: gochart.TimeToFloat64(xMin), Max: gochart.TimeToFloat64(xMax)},
			Ticks:          timeTicks(xMin, xMax),
			GridMajorStyle: gridStyle,
			GridMinorStyle: gridStyle,
		},
		YAxis: gochart.YAxis{
			Name:           s.YLabel,
			Range:          &gochart.ContinuousRange{Min: yMin, Max: yMax},
			GridMajorStyle: gridStyle,
			GridMinorStyle: gridStyle,
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    s.Title,
				XValues: s.Timestamps,
				YValues: s.Values,
				Style: gochart.Style{
					StrokeColor: seriesColor,
					StrokeWidth: 1.5,
					DotColor:    seriesColor,
					DotWidth:    2.5,
				},
			},
		},
	}

	if err := ch.Render(gochart.PNG, out); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

// xLimits returns the x-axis bounds: the first timestamp pulled left by 1% of
// the span and the last pushed right by 5%. A zero span is padded so the axis
// never collapses.
func xLimits(ts []time.Time) (time.Time, time.Time) {
	first, last := ts[0], ts[len(ts)-1]
	span := last.Sub(first)
	if span <= 0 {
		return first.Add(-singlePointPad), last.Add(singlePointPad)
	}
	left := time.Duration(float64(span) * leftMargin)
	right := time.Duration(float64(span) * rightMargin)
	return first.Add(-left), last.Add(right)
}

// yLimits returns padded value-axis bounds.
func yLimits(vs []float64) (float64, float64) {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi - lo) * yMargin
	if pad == 0 {
		pad = math.Abs(lo) * yMargin
		if pad == 0 {
			pad = 1
		}
	}
	return lo - pad, hi + pad
}

// pickTickStep returns the smallest candidate step giving at most maxTicks
// ticks. Spans too long for a one-day step get a whole number of days.
func pickTickStep(span time.Duration) time.Duration {
	for _, step := range tickSteps {
		if span/step <= maxTicks {
			return step
		}
	}
	const day = 24 * time.Hour
	days := (span + maxTicks*day - 1) / (maxTicks * day)
	return days * day
}

// timeTicks returns unlabelled boundary ticks at min and max, which pin the
// axis range, with labelled ticks on round step boundaries between them.
// Day-spaced ticks read MM-DD, shorter steps HH:MM.
func timeTicks(lo, hi time.Time) []gochart.Tick {
	step := pickTickStep(hi.Sub(lo))
	layout := TickLabelFormat
	if step >= 24*time.Hour {
		layout = DayTickLabelFormat
	}

	ticks := []gochart.Tick{{Value: gochart.TimeToFloat64(lo)}}
	for t := lo.Truncate(step); !t.After(hi); t = t.Add(step) {
		if !t.After(lo) || !t.Before(hi) {
			continue
		}
		ticks = append(ticks, gochart.Tick{
			Value: gochart.TimeToFloat64(t),
			Label: t.UTC().Format(layout),
		})
	}
	return append(ticks, gochart.Tick{Value: gochart.TimeToFloat64(hi)})
}
