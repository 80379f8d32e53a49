package report

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"medpulse/internal/analysis"
)

const (
	chartCols   = 3
	panelWidth  = 5 * vg.Inch
	panelHeight = 4 * vg.Inch
)

var weekdayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// writeCharts renders the profile's chart grid as a single PNG, one
// panel per spec, three panels per row.
func writeCharts(res *analysis.Result, path string) error {
	specs := res.Profile.Charts
	if len(specs) == 0 {
		return nil
	}

	plots := make([]*plot.Plot, len(specs))
	for i, spec := range specs {
		p, err := renderPanel(res, spec)
		if err != nil {
			return fmt.Errorf("panel %q: %w", spec.Title, err)
		}
		plots[i] = p
	}

	rows := (len(plots) + chartCols - 1) / chartCols
	grid := make([][]*plot.Plot, rows)
	for r := range grid {
		grid[r] = make([]*plot.Plot, chartCols)
		for c := 0; c < chartCols; c++ {
			if i := r*chartCols + c; i < len(plots) {
				grid[r][c] = plots[i]
			}
		}
	}

	img := vgimg.New(vg.Length(chartCols)*panelWidth, vg.Length(rows)*panelHeight)
	canvases := plot.Align(grid, draw.Tiles{
		Rows: rows,
		Cols: chartCols,
		PadX: vg.Millimeter * 4,
		PadY: vg.Millimeter * 4,
	}, draw.New(img))
	for r := range grid {
		for c := range grid[r] {
			if grid[r][c] != nil {
				grid[r][c].Draw(canvases[r][c])
			}
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func renderPanel(res *analysis.Result, spec analysis.ChartSpec) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = spec.Title
	p.Title.TextStyle.Font.Size = vg.Points(11)

	switch spec.Kind {
	case analysis.ChartBar, analysis.ChartBarH:
		return p, renderBars(p, res, spec)
	case analysis.ChartShare:
		return p, renderShares(p, res, spec)
	case analysis.ChartHist:
		return p, renderHistogram(p, res, spec)
	case analysis.ChartLine:
		return p, renderLine(p, res, spec)
	case analysis.ChartScatter:
		return p, renderScatter(p, res, spec)
	case analysis.ChartBox:
		return p, renderBoxes(p, res, spec)
	}
	return nil, fmt.Errorf("unknown chart kind %q", spec.Kind)
}

// groupedValues aggregates the chart's value column per dimension
// group, honoring the chart definition's ordering hints.
func groupedValues(res *analysis.Result, spec analysis.ChartSpec) ([]string, []float64, error) {
	var table *analysis.Table
	var err error
	if spec.AgeBucketed {
		ages, ferr := res.Frame.Floats(res.Profile.AgeColumn)
		if ferr != nil {
			return nil, nil, ferr
		}
		table, err = analysis.GroupByKeys(res.Frame, spec.Title, "age_group",
			analysis.AgeBuckets(ages), []analysis.Agg{{Column: spec.Value, Fn: spec.Fn}})
	} else {
		table, err = analysis.GroupBy(res.Frame, spec.Title, []string{spec.Dim},
			[]analysis.Agg{{Column: spec.Value, Fn: spec.Fn}})
	}
	if err != nil {
		return nil, nil, err
	}

	keys := make([]string, 0, len(table.Rows))
	vals := make([]float64, 0, len(table.Rows))
	for _, r := range table.Rows {
		keys = append(keys, r.Key)
		vals = append(vals, r.Cells[0])
	}

	switch {
	case spec.WeekdayOrder:
		keys, vals = reorder(keys, vals, weekdayOrder)
	case spec.AgeBucketed:
		sort.Sort(&pairSort{keys: keys, vals: vals})
	case numericKeys(keys):
		sort.Sort(&numericPairSort{keys: keys, vals: vals})
	}
	return keys, vals, nil
}

func renderBars(p *plot.Plot, res *analysis.Result, spec analysis.ChartSpec) error {
	keys, vals, err := groupedValues(res, spec)
	if err != nil {
		return err
	}
	bars, err := plotter.NewBarChart(plotter.Values(vals), vg.Points(18))
	if err != nil {
		return err
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = 0
	if spec.Kind == analysis.ChartBarH {
		bars.Horizontal = true
		p.Add(bars)
		p.NominalY(keys...)
		p.X.Label.Text = spec.Value
		return nil
	}
	p.Add(bars)
	p.NominalX(keys...)
	p.X.Tick.Label.Rotation = 0.6
	p.X.Tick.Label.XAlign = draw.XRight
	p.Y.Label.Text = spec.Value
	return nil
}

// renderShares draws each group's share of the row count as a bar
// panel labelled in percent.
func renderShares(p *plot.Plot, res *analysis.Result, spec analysis.ChartSpec) error {
	counted := spec
	counted.Value = spec.Dim
	counted.Fn = analysis.AggCount
	keys, counts, err := groupedValues(res, counted)
	if err != nil {
		return err
	}
	total := 0.0
	for _, c := range counts {
		total += c
	}
	shares := make([]float64, len(counts))
	labels := make([]string, len(keys))
	for i, c := range counts {
		shares[i] = c / total * 100
		labels[i] = fmt.Sprintf("%s (%.1f%%)", keys[i], shares[i])
	}
	bars, err := plotter.NewBarChart(plotter.Values(shares), vg.Points(18))
	if err != nil {
		return err
	}
	bars.Color = plotutil.Color(2)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = 0.6
	p.X.Tick.Label.XAlign = draw.XRight
	p.Y.Label.Text = "share %"
	return nil
}

func renderHistogram(p *plot.Plot, res *analysis.Result, spec analysis.ChartSpec) error {
	vals, err := res.Frame.Floats(spec.X)
	if err != nil {
		return err
	}
	bins := spec.Bins
	if bins == 0 {
		bins = 10
	}
	h, err := plotter.NewHist(plotter.Values(vals), bins)
	if err != nil {
		return err
	}
	h.FillColor = plotutil.Color(1)
	p.Add(h)
	p.X.Label.Text = spec.X
	p.Y.Label.Text = "count"
	return nil
}

func renderLine(p *plot.Plot, res *analysis.Result, spec analysis.ChartSpec) error {
	keys, vals, err := groupedValues(res, spec)
	if err != nil {
		return err
	}
	pts := make(plotter.XYs, len(vals))
	for i, v := range vals {
		x, err := strconv.ParseFloat(keys[i], 64)
		if err != nil {
			x = float64(i)
		}
		pts[i] = plotter.XY{X: x, Y: v}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = plotutil.Color(3)
	p.Add(line)
	p.X.Label.Text = spec.Dim
	p.Y.Label.Text = spec.Value
	return nil
}

// renderScatter samples at most 2000 points so dense datasets stay
// legible and the PNG stays small.
func renderScatter(p *plot.Plot, res *analysis.Result, spec analysis.ChartSpec) error {
	xs, err := res.Frame.Floats(spec.X)
	if err != nil {
		return err
	}
	ys, err := res.Frame.Floats(spec.Y)
	if err != nil {
		return err
	}
	stride := 1
	if len(xs) > 2000 {
		stride = len(xs)/2000 + 1
	}
	pts := make(plotter.XYs, 0, len(xs)/stride+1)
	for i := 0; i < len(xs); i += stride {
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Radius = vg.Points(1.5)
	sc.GlyphStyle.Color = plotutil.Color(0)
	p.Add(sc)
	p.X.Label.Text = spec.X
	p.Y.Label.Text = spec.Y
	return nil
}

// renderBoxes splits a numeric column by the profile's binary outcome
// and draws one box per group.
func renderBoxes(p *plot.Plot, res *analysis.Result, spec analysis.ChartSpec) error {
	outcome := res.Profile.Outcome
	if outcome == "" {
		return fmt.Errorf("box panel needs a profile outcome column")
	}
	split, err := res.Frame.Floats(outcome)
	if err != nil {
		return err
	}
	vals, err := res.Frame.Floats(spec.X)
	if err != nil {
		return err
	}
	var pos, neg plotter.Values
	for i, s := range split {
		if s == 1 {
			pos = append(pos, vals[i])
		} else {
			neg = append(neg, vals[i])
		}
	}
	negBox, err := plotter.NewBoxPlot(vg.Points(30), 0, neg)
	if err != nil {
		return err
	}
	posBox, err := plotter.NewBoxPlot(vg.Points(30), 1, pos)
	if err != nil {
		return err
	}
	p.Add(negBox, posBox)
	p.NominalX("No", "Yes")
	p.X.Label.Text = outcome
	p.Y.Label.Text = spec.X
	return nil
}

func reorder(keys []string, vals []float64, order []string) ([]string, []float64) {
	outKeys := make([]string, 0, len(keys))
	outVals := make([]float64, 0, len(vals))
	for _, want := range order {
		for i, k := range keys {
			if k == want {
				outKeys = append(outKeys, k)
				outVals = append(outVals, vals[i])
			}
		}
	}
	return outKeys, outVals
}

func numericKeys(keys []string) bool {
	for _, k := range keys {
		if _, err := strconv.ParseFloat(k, 64); err != nil {
			return false
		}
	}
	return len(keys) > 0
}

// pairSort orders keys lexically, carrying values along.
type pairSort struct {
	keys []string
	vals []float64
}

func (s *pairSort) Len() int           { return len(s.keys) }
func (s *pairSort) Less(i, j int) bool { return s.keys[i] < s.keys[j] }
func (s *pairSort) Swap(i, j int) {
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
	s.vals[i], s.vals[j] = s.vals[j], s.vals[i]
}

// numericPairSort orders keys by their numeric value, for dimensions
// like month or quarter.
type numericPairSort pairSort

func (s *numericPairSort) Len() int { return len(s.keys) }
func (s *numericPairSort) Less(i, j int) bool {
	a, _ := strconv.ParseFloat(s.keys[i], 64)
	b, _ := strconv.ParseFloat(s.keys[j], 64)
	return a < b
}
func (s *numericPairSort) Swap(i, j int) {
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
	s.vals[i], s.vals[j] = s.vals[j], s.vals[i]
}
