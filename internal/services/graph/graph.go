// Package graph renders the balance history as a PNG line chart.
package graph

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/pkg/indicators"
)

const (
	dateLayout    = "2006-01-02 15:04"
	defaultWidth  = 10 * vg.Inch
	defaultHeight = 5 * vg.Inch
	defaultFile   = "balance.png"
)

var (
	totalColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	trendColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// Renderer draws the total portfolio value over time, with an optional
// moving average overlay.
type Renderer struct {
	dir       string
	smaPeriod int
	logger    *zap.Logger
}

// NewRenderer writes images into dir (the OS temp dir when empty).
// A smaPeriod below 2 disables the overlay.
func NewRenderer(dir string, smaPeriod int, logger *zap.Logger) *Renderer {
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{dir: dir, smaPeriod: smaPeriod, logger: logger}
}

// Title "Crypto Balance: <start> - <end>".
func Title(start, end time.Time) string {
	return fmt.Sprintf("Crypto Balance: %s - %s", start.Format(dateLayout), end.Format(dateLayout))
}

// Render draws points and returns the image path. An empty series draws
// nothing and returns an empty path.
func (r *Renderer) Render(points []domain.BalancePoint, fiat string) (string, error) {
	if len(points) == 0 {
		return "", nil
	}

	xs, ys := domain.Series(points)

	p := plot.New()
	p.Title.Text = Title(points[0].Timestamp, points[len(points)-1].Timestamp)
	p.X.Label.Text = "Time"
	p.Y.Label.Text = fiat + " $"
	p.X.Tick.Marker = plot.TimeTicks{Format: "01-02\n15:04"}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(toXYs(xs, ys))
	if err != nil {
		return "", errors.Wrap(err, "build balance line")
	}
	line.Color = totalColor
	line.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("total", line)

	if r.smaPeriod > 1 && len(points) >= r.smaPeriod {
		trend, err := r.trendLine(points, xs)
		if err != nil {
			return "", err
		}
		p.Add(trend)
		p.Legend.Add(fmt.Sprintf("SMA(%d)", r.smaPeriod), trend)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	path := filepath.Join(r.dir, defaultFile)
	if err := p.Save(defaultWidth, defaultHeight, path); err != nil {
		return "", errors.Wrap(err, "save balance graph")
	}

	r.logger.Debug("rendered balance graph", zap.String("path", path), zap.Int("points", len(points)))
	return path, nil
}

func (r *Renderer) trendLine(points []domain.BalancePoint, xs []float64) (*plotter.Line, error) {
	totals := make([]decimal.Decimal, len(points))
	for i, p := range points {
		totals[i] = p.Total
	}

	sma, err := indicators.CalculateSMA(totals, r.smaPeriod)
	if err != nil {
		return nil, errors.Wrap(err, "calculate moving average")
	}

	// sma is aligned with the tail of xs
	offset := len(xs) - len(sma)
	ys := make([]float64, len(sma))
	for i, v := range sma {
		ys[i] = v.InexactFloat64()
	}

	line, err := plotter.NewLine(toXYs(xs[offset:], ys))
	if err != nil {
		return nil, errors.Wrap(err, "build trend line")
	}
	line.Color = trendColor
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	return line, nil
}

func toXYs(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}
