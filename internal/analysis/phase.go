package analysis

import (
	"strings"

	"github.com/san-kum/pidlab/internal/loop"
)

// PhasePlane traces tracking error against its rate of change. A loop
// that settles spirals into the origin; a sustained ring closes into a
// cycle around it.
type PhasePlane struct {
	Points []PlanePoint
}

// PlanePoint is one sample of the error trajectory.
type PlanePoint struct {
	E, EDot float64
}

// ErrorPhasePlane builds the error-versus-error-rate trajectory of a
// trace against a fixed setpoint. Rates use central differences,
// one-sided at the ends. Traces shorter than two samples yield nil.
func ErrorPhasePlane(tr loop.Trace, setpoint float64) *PhasePlane {
	n := tr.Len()
	dt := tr.Step()
	if n < 2 || dt <= 0 {
		return nil
	}

	e := make([]float64, n)
	for i, v := range tr.Output {
		e[i] = setpoint - v
	}

	plane := &PhasePlane{Points: make([]PlanePoint, n)}
	for i := 0; i < n; i++ {
		var rate float64
		switch i {
		case 0:
			rate = (e[1] - e[0]) / dt
		case n - 1:
			rate = (e[n-1] - e[n-2]) / dt
		default:
			rate = (e[i+1] - e[i-1]) / (2 * dt)
		}
		plane.Points[i] = PlanePoint{E: e[i], EDot: rate}
	}
	return plane
}

// PlaneToASCII renders the trajectory on a text canvas, error on the
// horizontal axis and error rate on the vertical. Axes are drawn where
// they cross the visible range.
func PlaneToASCII(plane *PhasePlane, width, height int) string {
	if plane == nil || len(plane.Points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	// Find bounds
	minX, maxX := plane.Points[0].E, plane.Points[0].E
	minY, maxY := plane.Points[0].EDot, plane.Points[0].EDot

	for _, p := range plane.Points {
		if p.E < minX {
			minX = p.E
		}
		if p.E > maxX {
			maxX = p.E
		}
		if p.EDot < minY {
			minY = p.EDot
		}
		if p.EDot > maxY {
			maxY = p.EDot
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	// Create canvas
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	// Plot points
	for _, p := range plane.Points {
		col := int((p.E - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.EDot-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	// Convert to string
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// Crossings reports the interpolated times at which the output rises
// through level.
func Crossings(tr loop.Trace, level float64) []float64 {
	times := make([]float64, 0)
	for i := 1; i < tr.Len(); i++ {
		prev, curr := tr.Output[i-1], tr.Output[i]
		if prev < level && curr >= level {
			frac := (level - prev) / (curr - prev)
			times = append(times, tr.Time[i-1]+frac*(tr.Time[i]-tr.Time[i-1]))
		}
	}
	return times
}
