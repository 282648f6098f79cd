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

	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/rig"
)

var palette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
}

// TracePlot builds a time plot of the named series.
func TracePlot(tr *dynamo.Trace, title string, series ...string) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no series to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Legend.Top = true
	stylePlot(p)

	times := tr.Times()
	for i, name := range series {
		ys, ok := rig.Series(tr, name)
		if !ok {
			return nil, fmt.Errorf("unknown series %q (available: %v)", name, rig.SeriesNames(tr))
		}

		pts := make(plotter.XYs, len(times))
		for j := range times {
			pts[j].X = times[j]
			pts[j].Y = ys[j]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("line %s: %w", name, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = palette[i%len(palette)]
		p.Add(line)
		p.Legend.Add(name, line)
	}
	if len(series) == 1 {
		p.Y.Label.Text = series[0]
	}
	return p, nil
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Padding = vg.Points(8)
	p.Y.Padding = vg.Points(8)
	p.Add(plotter.NewGrid())
}

// SavePNG renders p at the given size in inches and dpi.
func SavePNG(p *plot.Plot, widthIn, heightIn float64, dpi int, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
