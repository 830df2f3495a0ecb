package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
}

// Defaults for quantity charts.
const (
	DefaultWidth   = 640
	DefaultHeight  = 240
	DefaultPadding = 28.0
	DefaultTicks   = 5
)
