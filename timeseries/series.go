package timeseries

// Series is a chart-ready projection of a window: labels and values are
// index-aligned and run oldest-first, left to right.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// ToSeries converts a chronologically ascending window into a Series.
// Dates are formatted MM/DD. Points whose quantity does not parse are
// skipped entirely, label and value both, so NaN never reaches a chart.
func ToSeries(window []Point) Series {
	s := Series{
		Labels: make([]string, 0, len(window)),
		Values: make([]float64, 0, len(window)),
	}
	for _, p := range window {
		v, err := p.Quantity.Float64()
		if err != nil {
			continue
		}
		s.Labels = append(s.Labels, p.Date.Format("01/02"))
		s.Values = append(s.Values, v)
	}
	return s
}
