package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/hydrorig/internal/dynamo"
)

type Point struct{ X, Y float64 }

// Portrait holds two state components of a trace against each other.
type Portrait struct {
	XIndex, YIndex int
	Points         []Point
}

func NewPortrait(tr *dynamo.Trace, xIdx, yIdx int) *Portrait {
	if tr == nil {
		return nil
	}
	p := &Portrait{XIndex: xIdx, YIndex: yIdx, Points: make([]Point, 0, len(tr.Records))}
	for _, rec := range tr.Records {
		if xIdx >= len(rec.State) || yIdx >= len(rec.State) {
			return nil
		}
		p.Points = append(p.Points, Point{X: rec.State[xIdx], Y: rec.State[yIdx]})
	}
	return p
}

// ASCII renders the portrait on a width x height character grid.
func (p *Portrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}

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

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Axes, where they cross the visible area.
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// Crossings returns the linearly interpolated times at which signal crosses
// level in either direction.
func Crossings(times, signal []float64, level float64) []float64 {
	out := make([]float64, 0)
	n := min(len(times), len(signal))
	for i := 1; i < n; i++ {
		a, b := signal[i-1]-level, signal[i]-level
		if a == 0 || a*b >= 0 {
			continue
		}
		frac := a / (a - b)
		out = append(out, times[i-1]+frac*(times[i]-times[i-1]))
	}
	return out
}
