package timeseries

import "time"

// Named window sizes, in entry counts.
const (
	Weekly  = 7
	Monthly = 28
	Yearly  = 270
)

// Point is a dated quantity observation for a single item.
type Point struct {
	Date     time.Time
	Quantity Quantity
}

// WindowSize resolves a window name to its entry count. Returns 0 for
// unknown names.
func WindowSize(name string) int {
	switch name {
	case "weekly":
		return Weekly
	case "monthly":
		return Monthly
	case "yearly":
		return Yearly
	default:
		return 0
	}
}

// Window returns the most recent n points from a chronologically
// ascending sequence: the tail suffix, still ascending. Shorter inputs
// are returned whole; an empty input yields an empty window.
func Window(points []Point, n int) []Point {
	if n <= 0 || len(points) == 0 {
		return nil
	}
	if len(points) <= n {
		return points
	}
	return points[len(points)-n:]
}

// Reversed returns a copy of points in the opposite order. Live query
// snapshots arrive newest-first; charts want chronological order.
func Reversed(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}
