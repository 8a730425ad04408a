package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// Chart dimensions.
const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 8 * vg.Inch
)

var gradeColors = map[domain.Grade]color.Color{
	domain.GradeNew:             color.RGBA{R: 0x1f, G: 0x4e, B: 0xd8, A: 0xff},
	domain.GradeLikeNew:         color.RGBA{R: 0x00, G: 0xbc, B: 0xd4, A: 0xff},
	domain.GradeNoVisibleDamage: color.RGBA{R: 0x2e, G: 0x9d, B: 0x3a, A: 0xff},
	domain.GradeSlightDamage:    color.RGBA{R: 0xe6, G: 0xc2, B: 0x00, A: 0xff},
	domain.GradeDamaged:         color.RGBA{R: 0xf5, G: 0x8a, B: 0x07, A: 0xff},
	domain.GradePoor:            color.RGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff},
}

var otherColor = color.Gray{Y: 0x80}

// Distribution renders a PNG scatter of price against sequence index, one
// series per grade. Listings without a price are skipped and outliers are
// drawn as crosses.
func Distribution(w io.Writer, listings []domain.Listing) error {
	p := plot.New()
	p.Title.Text = "Price Distribution by Condition"
	p.X.Label.Text = "Index"
	p.Y.Label.Text = "Price"
	p.Add(plotter.NewGrid())

	type series struct {
		inliers  plotter.XYs
		outliers plotter.XYs
	}
	byGrade := make(map[domain.Grade]*series)
	for i := range listings {
		l := &listings[i]
		if !l.HasPrice() {
			continue
		}
		g := l.Grade
		if !g.Known() {
			g = domain.GradeError
		}
		s := byGrade[g]
		if s == nil {
			s = &series{}
			byGrade[g] = s
		}
		pt := plotter.XY{X: float64(l.SourceIndex), Y: *l.Price}
		if l.OutlierFlag {
			s.outliers = append(s.outliers, pt)
		} else {
			s.inliers = append(s.inliers, pt)
		}
	}

	grades := append(domain.KnownGrades(), domain.GradeError)
	for _, g := range grades {
		s := byGrade[g]
		if s == nil {
			continue
		}
		c, ok := gradeColors[g]
		if !ok {
			c = otherColor
		}
		if len(s.inliers) > 0 {
			sc, err := scatter(s.inliers, c, draw.CircleGlyph{})
			if err != nil {
				return err
			}
			p.Add(sc)
			p.Legend.Add(string(g), sc)
		}
		if len(s.outliers) > 0 {
			sc, err := scatter(s.outliers, c, draw.CrossGlyph{})
			if err != nil {
				return err
			}
			p.Add(sc)
		}
	}

	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("encoding chart: %w", err)
	}
	return nil
}

func scatter(pts plotter.XYs, c color.Color, shape draw.GlyphDrawer) (*plotter.Scatter, error) {
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("building scatter: %w", err)
	}
	sc.GlyphStyle.Color = c
	sc.GlyphStyle.Shape = shape
	sc.GlyphStyle.Radius = vg.Points(2.5)
	return sc, nil
}
