package views

import (
	"bytes"
	"math"
	"strconv"

	"riego/internal/modules/dashboard/types"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type tile struct {
	index      int
	x, y, w, h float64
}

// layoutTreemap splits the rectangle recursively: items are cut into two runs
// of roughly equal weight and the longer side is divided between them.
// Tile areas are proportional to weights; input order is kept.
func layoutTreemap(weights []float64, x, y, w, h float64) []tile {
	idx := make([]int, len(weights))
	for i := range idx {
		idx[i] = i
	}
	out := make([]tile, 0, len(weights))
	return splitTiles(out, weights, idx, x, y, w, h)
}

func splitTiles(out []tile, weights []float64, idx []int, x, y, w, h float64) []tile {
	switch len(idx) {
	case 0:
		return out
	case 1:
		return append(out, tile{index: idx[0], x: x, y: y, w: w, h: h})
	}

	var total float64
	for _, i := range idx {
		total += weights[i]
	}
	if total <= 0 {
		return out
	}

	// Smallest prefix reaching half the weight, leaving at least one item on each side.
	cut, acc := 1, weights[idx[0]]
	for cut < len(idx)-1 && acc+weights[idx[cut]] <= total/2 {
		acc += weights[idx[cut]]
		cut++
	}
	frac := acc / total

	if w >= h {
		lw := w * frac
		out = splitTiles(out, weights, idx[:cut], x, y, lw, h)
		return splitTiles(out, weights, idx[cut:], x+lw, y, w-lw, h)
	}
	th := h * frac
	out = splitTiles(out, weights, idx[:cut], x, y, w, th)
	return splitTiles(out, weights, idx[cut:], x, y+th, w, h-th)
}

func renderTreemap(buf *bytes.Buffer, spec types.ChartSpec) error {
	const (
		titleBand = 44
		margin    = 16
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

	weights := make([]float64, len(spec.Points))
	for i, p := range spec.Points {
		weights[i] = p.Value
	}
	tiles := layoutTreemap(weights, margin, titleBand, wideWidth-2*margin, wideHeight-titleBand-margin)

	for _, t := range tiles {
		x0, y0 := int(math.Round(t.x)), int(math.Round(t.y))
		x1, y1 := int(math.Round(t.x+t.w)), int(math.Round(t.y+t.h))

		r.SetFillColor(paletteColor(t.index))
		r.SetStrokeColor(drawing.ColorWhite)
		r.SetStrokeWidth(2)
		rect(r, x0, y0, x1, y1)
		r.FillStroke()

		p := spec.Points[t.index]
		label := p.Label
		count := strconv.FormatFloat(p.Value, 'f', -1, 64)
		r.SetFontColor(drawing.ColorWhite)
		r.SetFontSize(12)
		lb := r.MeasureText(label)
		cb := r.MeasureText(count)
		if lb.Width()+8 > x1-x0 || 2*lb.Height()+12 > y1-y0 {
			continue
		}
		r.Text(label, x0+6, y0+6+lb.Height())
		r.Text(count, x0+6, y0+12+lb.Height()+cb.Height())
	}
	return r.Save(buf)
}
