// Package convergence draws the reconstruction error of a training run.
package convergence

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/reggo/ksvd"
)

// Size of the saved figure.
const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// Points returns (iteration, error) pairs for the report, iterations
// counted from 1.
func Points(r *ksvd.Report) plotter.XYs {
	pts := make(plotter.XYs, len(r.Errors))
	for i, e := range r.Errors {
		pts[i].X = float64(i + 1)
		pts[i].Y = e
	}
	return pts
}

// New returns a line plot of ‖X − ΓD‖_F against iteration.
func New(r *ksvd.Report) (*plot.Plot, error) {
	if r == nil || len(r.Errors) == 0 {
		return nil, errors.New("convergence: report has no iterations")
	}
	p := plot.New()
	p.Title.Text = "Approximate K-SVD"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "reconstruction error"
	p.X.Min = 1

	pts := Points(r)
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "convergence")
	}
	marks, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "convergence")
	}
	p.Add(line, marks, plotter.NewGrid())
	return p, nil
}

// Save writes the plot of r to path. The format follows the extension
// (.png, .svg, .pdf, ...).
func Save(r *ksvd.Report, path string) error {
	p, err := New(r)
	if err != nil {
		return err
	}
	return errors.Wrapf(p.Save(Width, Height, path), "convergence: saving %s", path)
}
