package export

import (
	"bufio"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/pidlab/internal/loop"
)

var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
}

// SavePNG renders one trace with its setpoint reference.
func SavePNG(path string, tr loop.Trace, setpoint float64, title string) error {
	p, err := buildTracePlot(tr, setpoint, title)
	if err != nil {
		return err
	}
	return writePNG(p, path)
}

// SaveSVG renders the same chart as SavePNG as a scalable vector. The
// format follows the file extension, so any extension plot.Save knows
// works here too.
func SaveSVG(path string, tr loop.Trace, setpoint float64, title string) error {
	p, err := buildTracePlot(tr, setpoint, title)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

func buildTracePlot(tr loop.Trace, setpoint float64, title string) (*plot.Plot, error) {
	if tr.Len() == 0 {
		return nil, fmt.Errorf("export: nothing to plot")
	}
	p := newPlot(title)

	line, err := plotter.NewLine(tracePoints(tr))
	if err != nil {
		return nil, err
	}
	line.Color = palette[0]
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("response", line)

	ref, err := setpointLine(tr, setpoint)
	if err != nil {
		return nil, err
	}
	p.Add(ref)
	p.Legend.Add("setpoint", ref)

	return p, nil
}

// SaveComparePNG renders several traces of the same experiment on one
// canvas, colored per candidate.
func SaveComparePNG(path string, traces []loop.Trace, labels []string, setpoint float64, title string) error {
	if len(traces) == 0 {
		return fmt.Errorf("export: nothing to plot")
	}
	if len(labels) != len(traces) {
		return fmt.Errorf("export: %d labels for %d traces", len(labels), len(traces))
	}
	p := newPlot(title)

	for i, tr := range traces {
		if tr.Len() == 0 {
			return fmt.Errorf("export: trace %d is empty", i)
		}
		line, err := plotter.NewLine(tracePoints(tr))
		if err != nil {
			return err
		}
		line.Color = palette[i%len(palette)]
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(labels[i], line)
	}

	ref, err := setpointLine(traces[0], setpoint)
	if err != nil {
		return err
	}
	p.Add(ref)

	return writePNG(p, path)
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "output"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

func tracePoints(tr loop.Trace) plotter.XYs {
	pts := make(plotter.XYs, tr.Len())
	for k := range pts {
		pts[k].X = tr.Time[k]
		pts[k].Y = tr.Output[k]
	}
	return pts
}

func setpointLine(tr loop.Trace, setpoint float64) (*plotter.Line, error) {
	ref, err := plotter.NewLine(plotter.XYs{
		{X: tr.Time[0], Y: setpoint},
		{X: tr.Time[tr.Len()-1], Y: setpoint},
	})
	if err != nil {
		return nil, err
	}
	ref.Color = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	ref.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	return ref, nil
}

func writePNG(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	c := vgimg.NewWith(
		vgimg.UseWH(8*vg.Inch, 6*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	defer bw.Flush()

	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return err
	}
	return nil
}
