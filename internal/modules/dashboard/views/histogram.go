package views

import (
	"bytes"
	"math"
	"strconv"

	"riego/internal/modules/dashboard/types"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const maxCountTicks = 5

type segment struct {
	label string
	value float64
	y, h  float64
}

type column struct {
	label    string
	total    float64
	x, w     float64
	segments []segment
}

// countAxis returns the top of the count axis and its tick step. Both are
// whole numbers and the top is never below the tallest bucket.
func countAxis(top float64) (float64, float64) {
	if top <= 0 {
		top = 1
	}
	step := math.Max(1, math.Ceil(top/maxCountTicks))
	return step * math.Ceil(top/step), step
}

// layoutHistogram places one column per stack inside the plot box. Segment
// heights are absolute counts scaled by axisMax, stacked from the bottom in
// input order.
func layoutHistogram(stacks []types.Stack, axisMax, x, y, w, h float64) []column {
	if len(stacks) == 0 || axisMax <= 0 {
		return nil
	}
	slot := w / float64(len(stacks))
	barW := math.Min(slot*0.6, 120)
	cols := make([]column, 0, len(stacks))
	for i, s := range stacks {
		col := column{
			label: s.Label,
			x:     x + float64(i)*slot + (slot-barW)/2,
			w:     barW,
		}
		base := y + h
		for _, seg := range s.Segments {
			sh := seg.Value / axisMax * h
			base -= sh
			col.segments = append(col.segments, segment{label: seg.Label, value: seg.Value, y: base, h: sh})
			col.total += seg.Value
		}
		cols = append(cols, col)
	}
	return cols
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func renderHistogram(buf *bytes.Buffer, spec types.ChartSpec) error {
	const (
		titleBand = 44
		left      = 56
		right     = 16
		bottom    = 40
	)
	r, err := chart.SVG(wideWidth, wideHeight)
	if err != nil {
		return err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return err
	}
	r.SetFont(font)

	r.SetFontColor(textColor)
	r.SetFontSize(14)
	title := r.MeasureText(spec.Title)
	r.Text(spec.Title, (wideWidth-title.Width())/2, 28)

	var top float64
	for _, s := range spec.Stacks {
		var total float64
		for _, seg := range s.Segments {
			total += seg.Value
		}
		top = math.Max(top, total)
	}
	axisMax, step := countAxis(top)

	plotX, plotY := float64(left), float64(titleBand)
	plotW := float64(wideWidth - left - right)
	plotH := float64(wideHeight - titleBand - bottom)
	baseline := int(math.Round(plotY + plotH))

	// Count ticks with light grid lines.
	r.SetFontSize(10)
	for v := 0.0; v <= axisMax; v += step {
		ty := int(math.Round(plotY + plotH - v/axisMax*plotH))
		r.SetStrokeColor(drawing.Color{R: 230, G: 230, B: 230, A: 255})
		r.SetStrokeWidth(1)
		r.MoveTo(left, ty)
		r.LineTo(wideWidth-right, ty)
		r.Stroke()

		label := formatCount(v)
		lb := r.MeasureText(label)
		r.SetFontColor(textColor)
		r.Text(label, left-8-lb.Width(), ty+lb.Height()/2)
	}
	if spec.YLabel != "" {
		r.Text(spec.YLabel, 8, titleBand-8)
	}

	// Segment colors follow the category, so the same temperature has the same color in every bucket.
	colorOf := map[string]drawing.Color{}
	for _, col := range layoutHistogram(spec.Stacks, axisMax, plotX, plotY, plotW, plotH) {
		x0, x1 := int(math.Round(col.x)), int(math.Round(col.x+col.w))
		for _, seg := range col.segments {
			c, ok := colorOf[seg.label]
			if !ok {
				c = paletteColor(len(colorOf))
				colorOf[seg.label] = c
			}
			y0, y1 := int(math.Round(seg.y)), int(math.Round(seg.y+seg.h))
			r.SetFillColor(c)
			r.SetStrokeColor(drawing.ColorWhite)
			r.SetStrokeWidth(1)
			rect(r, x0, y0, x1, y1)
			r.FillStroke()

			r.SetFontSize(10)
			lb := r.MeasureText(seg.label)
			if lb.Width()+4 <= x1-x0 && lb.Height()+4 <= y1-y0 {
				r.SetFontColor(drawing.ColorWhite)
				r.Text(seg.label, (x0+x1-lb.Width())/2, (y0+y1+lb.Height())/2)
			}
		}

		r.SetFontColor(textColor)
		r.SetFontSize(11)
		total := formatCount(col.total)
		tb := r.MeasureText(total)
		colTop := baseline - int(math.Round(col.total/axisMax*plotH))
		r.Text(total, (x0+x1-tb.Width())/2, colTop-4)

		db := r.MeasureText(col.label)
		r.Text(col.label, (x0+x1-db.Width())/2, baseline+6+db.Height())
	}

	r.SetStrokeColor(outlineColor)
	r.SetStrokeWidth(1)
	r.MoveTo(left, int(plotY))
	r.LineTo(left, baseline)
	r.LineTo(wideWidth-right, baseline)
	r.Stroke()
	return r.Save(buf)
}
