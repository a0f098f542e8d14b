// Package report renders diagnostic plots for a finished run.
package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"bitbucket.org/Davydov/mixfit/data"
	"bitbucket.org/Davydov/mixfit/posterior"
	"bitbucket.org/Davydov/mixfit/sample"
)

// errPoints combines coordinates with y error bars.
type errPoints struct {
	plotter.XYs
	plotter.YErrors
}

// grid returns n evenly spaced values covering the x range of the
// dataset with a small margin.
func grid(d *data.Dataset, n int) []float64 {
	min := d.Points[0].X
	max := d.Points[len(d.Points)-1].X
	margin := 0.1 * (max - min)
	min -= margin
	max += margin
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = min + float64(i)/float64(n-1)*(max-min)
	}
	return xs
}

// FitPlot saves a scatter of the data with the posterior median (or
// mean) line and a credible band of the given level. True outliers
// are drawn with a different glyph.
func FitPlot(d *data.Dataset, c *sample.Chain, level float64, gaussian bool, fn string) error {
	p := plot.New()
	p.Title.Text = "mixture model fit"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	xs := grid(d, 100)
	var mid, lo, hi []float64
	if gaussian {
		mid, lo, hi = posterior.GaussianBand(c, xs, level)
	} else {
		mid, lo, hi = posterior.FitBand(c, xs, level)
	}

	band := make(plotter.XYs, 0, 2*len(xs))
	for i := range xs {
		band = append(band, plotter.XY{X: xs[i], Y: lo[i]})
	}
	for i := len(xs) - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: xs[i], Y: hi[i]})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return err
	}
	poly.Color = color.NRGBA{R: 100, G: 100, B: 255, A: 60}
	poly.LineStyle.Width = 0
	p.Add(poly)

	line := make(plotter.XYs, len(xs))
	for i := range xs {
		line[i] = plotter.XY{X: xs[i], Y: mid[i]}
	}
	l, err := plotter.NewLine(line)
	if err != nil {
		return err
	}
	l.LineStyle.Color = color.NRGBA{B: 255, A: 255}
	p.Add(l)
	p.Legend.Add(fmt.Sprintf("fit (%.0f%% band)", level*100), l)

	var in, out errPoints
	for i, pt := range d.Points {
		ep := plotter.XY{X: pt.X, Y: pt.Y}
		ey := struct{ Low, High float64 }{pt.Sigma, pt.Sigma}
		if d.Outlier[i] {
			out.XYs = append(out.XYs, ep)
			out.YErrors = append(out.YErrors, ey)
		} else {
			in.XYs = append(in.XYs, ep)
			in.YErrors = append(in.YErrors, ey)
		}
	}
	for _, pts := range []struct {
		e    errPoints
		name string
		col  color.NRGBA
		gl   draw.GlyphDrawer
	}{
		{in, "data", color.NRGBA{A: 255}, draw.CircleGlyph{}},
		{out, "true outliers", color.NRGBA{R: 255, A: 255}, draw.PyramidGlyph{}},
	} {
		if len(pts.e.XYs) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts.e.XYs)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = pts.col
		s.GlyphStyle.Shape = pts.gl
		eb, err := plotter.NewYErrorBars(pts.e)
		if err != nil {
			return err
		}
		eb.LineStyle.Color = pts.col
		p.Add(s, eb)
		p.Legend.Add(pts.name, s)
	}

	p.Legend.Top = true
	return p.Save(6*vg.Inch, 4*vg.Inch, fn)
}

// PosteriorPlots saves a histogram of the marginal posterior of every
// parameter, one file per parameter named prefix-name.png.
func PosteriorPlots(c *sample.Chain, prefix string) error {
	for i, name := range c.Names {
		p := plot.New()
		p.Title.Text = name
		p.X.Label.Text = name
		p.Y.Label.Text = "density"

		h, err := plotter.NewHist(plotter.Values(c.Column(i)), 40)
		if err != nil {
			return err
		}
		h.Normalize(1)
		p.Add(h)

		fn := fmt.Sprintf("%s-%s.png", prefix, name)
		if err := p.Save(4*vg.Inch, 3*vg.Inch, fn); err != nil {
			return err
		}
	}
	return nil
}

// MembershipPlot saves a bar chart of the per-point foreground
// membership probabilities.
func MembershipPlot(probs []float64, d *data.Dataset, fn string) error {
	p := plot.New()
	p.Title.Text = "foreground membership probability"
	p.X.Label.Text = "point"
	p.Y.Label.Text = "p(foreground)"
	p.Y.Min = 0
	p.Y.Max = 1

	bars, err := plotter.NewBarChart(plotter.Values(probs), vg.Points(10))
	if err != nil {
		return err
	}
	bars.Color = color.NRGBA{R: 100, G: 100, B: 255, A: 255}
	p.Add(bars)

	labels := make([]string, len(probs))
	for i := range labels {
		if d != nil && d.Outlier[i] {
			labels[i] = fmt.Sprintf("%d*", i)
		} else {
			labels[i] = fmt.Sprintf("%d", i)
		}
	}
	p.NominalX(labels...)
	return p.Save(6*vg.Inch, 3*vg.Inch, fn)
}
