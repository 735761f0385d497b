package chart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	charts "github.com/vicanso/go-charts/v2"

	"AssetLens/internal/model"
	"AssetLens/internal/pipeline"
)

// File names written by WriteAll.
const (
	RebasedFile    = "rebased.png"
	PortfoliosFile = "portfolios.png"
)

// ErrNothingToPlot is returned when a report holds no plottable values.
var ErrNothingToPlot = errors.New("nothing to plot")

type line struct {
	name   string
	values map[time.Time]float64
}

// RenderRebased draws every aligned asset's rebased price on the shared monthly axis.
func RenderRebased(rep *pipeline.Report) ([]byte, error) {
	var lines []line
	for _, a := range rep.Assets {
		l := line{name: a.Series.ID, values: make(map[time.Time]float64, a.Series.Len())}
		for _, o := range a.Series.Observations {
			if o.Rebased.Valid {
				l.values[o.Date] = o.Rebased.Float
			}
		}
		lines = append(lines, l)
	}
	return render(rep.Dates, lines, "Rebased prices", "first month = 100")
}

// RenderPortfolios draws the growth of 100 invested in each portfolio at its first date.
func RenderPortfolios(rep *pipeline.Report) ([]byte, error) {
	var lines []line
	for _, p := range rep.Portfolios {
		lines = append(lines, line{name: p.Series.ID, values: growthIndex(p.Series.ReturnSeries)})
	}
	return render(rep.Dates, lines, "Portfolio growth", "discrete monthly returns, start = 100")
}

// growthIndex compounds a discrete return series into an index starting at 100.
// An undefined return carries the index forward.
func growthIndex(rs model.ReturnSeries) map[time.Time]float64 {
	out := make(map[time.Time]float64, rs.Len())
	level := 100.0
	for _, p := range rs.Points {
		if p.Value.Valid {
			level *= 1 + p.Value.Float
		}
		out[p.Date] = level
	}
	return out
}

func render(dates []time.Time, lines []line, title, subtitle string) ([]byte, error) {
	if len(dates) < 2 || len(lines) == 0 {
		return nil, ErrNothingToPlot
	}

	xLabels := make([]string, len(dates))
	for i, d := range dates {
		xLabels[i] = d.Format("Jan '06")
	}

	values := make([][]float64, len(lines))
	names := make([]string, len(lines))
	first := true
	var yMin, yMax float64
	for i, l := range lines {
		names[i] = l.name
		values[i] = make([]float64, len(dates))
		for j, d := range dates {
			v, ok := l.values[d]
			if !ok {
				values[i][j] = charts.GetNullValue()
				continue
			}
			values[i][j] = v
			if first || v < yMin {
				yMin = v
			}
			if first || v > yMax {
				yMax = v
			}
			first = false
		}
	}
	if first {
		return nil, ErrNothingToPlot
	}

	padding := (yMax - yMin) * 0.05
	if padding == 0 {
		padding = yMax * 0.05
	}
	yMin -= padding
	yMax += padding

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionBottom,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1200),
		charts.HeightOptionFunc(700),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

// WriteAll renders both charts into dir and returns the written paths. A chart with
// nothing to plot is skipped.
func WriteAll(dir string, rep *pipeline.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	jobs := []struct {
		name   string
		render func(*pipeline.Report) ([]byte, error)
	}{
		{RebasedFile, RenderRebased},
		{PortfoliosFile, RenderPortfolios},
	}
	var paths []string
	for _, j := range jobs {
		buf, err := j.render(rep)
		if errors.Is(err, ErrNothingToPlot) {
			continue
		}
		if err != nil {
			return paths, fmt.Errorf("%s: %w", j.name, err)
		}
		path := filepath.Join(dir, j.name)
		if err := os.WriteFile(path, buf, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", j.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
