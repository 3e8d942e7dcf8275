package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/xhyuo/pancancer-clustering/pkg/models"
)

var groupColors = []color.RGBA{
	{R: 214, G: 69, B: 65, A: 255},
	{R: 31, G: 119, B: 180, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 23, G: 190, B: 207, A: 255},
}

// SaveEmbeddingPlot writes a scatter plot of the 2-D sample embedding, one
// glyph style per true group, so cluster separation is visible at a glance.
func SaveEmbeddingPlot(path, title string, points []models.EmbeddingPoint) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "MDS 1"
	p.Y.Label.Text = "MDS 2"

	byGroup := make(map[int]plotter.XYs)
	for _, pt := range points {
		byGroup[pt.TrueGroup] = append(byGroup[pt.TrueGroup], plotter.XY{X: pt.X, Y: pt.Y})
	}

	for g := 0; g < len(groupColors); g++ {
		xys, ok := byGroup[g]
		if !ok {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("report: scatter for group %d: %w", g, err)
		}
		sc.GlyphStyle = draw.GlyphStyle{
			Color:  groupColors[g%len(groupColors)],
			Radius: vg.Points(2),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(sc)
		p.Legend.Add(fmt.Sprintf("group %d", g), sc)
	}
	// Any group index beyond the palette (or -1 for unknown) lands here.
	var rest plotter.XYs
	for g, xys := range byGroup {
		if g < 0 || g >= len(groupColors) {
			rest = append(rest, xys...)
		}
	}
	if len(rest) > 0 {
		sc, err := plotter.NewScatter(rest)
		if err != nil {
			return fmt.Errorf("report: scatter for ungrouped samples: %w", err)
		}
		sc.GlyphStyle = draw.GlyphStyle{
			Color:  color.RGBA{R: 128, G: 128, B: 128, A: 255},
			Radius: vg.Points(2),
			Shape:  draw.CrossGlyph{},
		}
		p.Add(sc)
	}

	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}
