package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pidlab/internal/loop"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Yellow,
	asciigraph.Magenta,
	asciigraph.Green,
	asciigraph.Red,
}

// RenderTrace plots the output of a trace as an ASCII line chart.
func RenderTrace(tr loop.Trace, height, width int, caption string) string {
	if tr.Len() == 0 {
		return ""
	}
	return asciigraph.Plot(tr.Output,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// RenderSeries overlays several curves on one chart, cycling through a
// fixed color palette.
func RenderSeries(series [][]float64, height, width int, caption string) string {
	if len(series) == 0 {
		return ""
	}
	colors := make([]asciigraph.AnsiColor, len(series))
	for i := range colors {
		colors[i] = seriesColors[i%len(seriesColors)]
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	)
}
