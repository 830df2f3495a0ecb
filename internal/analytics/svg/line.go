// Package svg renders chart series as standalone SVG documents.
package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Line renders an SVG line chart for index-aligned values and labels,
// oldest first left to right.
func Line(width, height int, values []float64, labels []string, opts LineOpts) (string, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("svg: values required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match values")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	stroke := fallback(opts.StrokeColor, "#0f766e")
	fill := fallback(opts.FillColor, "rgba(15,118,110,0.10)")
	axis := fallback(opts.AxisColor, "#475569")
	grid := fallback(opts.GridColor, "#cbd5e1")

	plotW := float64(width) - 2*padding
	plotH := float64(height) - 2*padding
	if plotW <= 0 || plotH <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	minVal, maxVal := bounds(values)
	if minVal > 0 {
		minVal = 0
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	scale := plotH / (maxVal - minVal)

	step := 0.0
	if len(values) > 1 {
		step = plotW / float64(len(values)-1)
	}
	pointX := func(i int) float64 {
		if len(values) == 1 {
			return padding + plotW/2
		}
		return padding + float64(i)*step
	}
	pointY := func(v float64) float64 {
		return padding + plotH - (v-minVal)*scale
	}

	var path strings.Builder
	for i, v := range values {
		if i == 0 {
			path.WriteString(fmt.Sprintf("M%.2f %.2f", pointX(i), pointY(v)))
			continue
		}
		path.WriteString(fmt.Sprintf(" L%.2f %.2f", pointX(i), pointY(v)))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\">", width, height))
	b.WriteString(fmt.Sprintf("<title>%s</title>", template.HTMLEscapeString(fallback(opts.Title, "Quantity over time"))))

	for i := 0; i <= ticks; i++ {
		ratio := float64(i) / float64(ticks)
		y := padding + plotH - ratio*plotH
		value := minVal + (maxVal-minVal)*ratio
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\"></line>", padding, y, padding+plotW, y, grid))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axis, template.HTMLEscapeString(formatTick(value))))
	}

	b.WriteString(fmt.Sprintf("<g stroke=\"%s\">", axis))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding, padding, padding+plotH))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding+plotH, padding+plotW, padding+plotH))
	b.WriteString("</g>")

	base := padding + plotH
	area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path.String(), pointX(len(values)-1), base, pointX(0), base)
	b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"%s\" stroke=\"none\"></path>", area, fill))
	b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", path.String(), stroke))

	// Label every point up to weekly width, then thin out.
	labelEvery := 1
	if len(labels) > 14 {
		labelEvery = len(labels) / 14
	}
	for i, label := range labels {
		if i%labelEvery != 0 && i != len(labels)-1 {
			continue
		}
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", pointX(i), padding+plotH+14, axis, template.HTMLEscapeString(label)))
	}

	b.WriteString("</svg>")
	return b.String(), nil
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func bounds(values []float64) (float64, float64) {
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func formatTick(v float64) string {
	if almostEqual(v, math.Round(v)) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
