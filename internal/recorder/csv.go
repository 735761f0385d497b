package recorder

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"AssetLens/internal/model"
	"AssetLens/internal/pipeline"
)

// Files written by CSVRecorder into its directory.
const (
	PricesFile    = "prices.csv"
	ReturnsFile   = "returns.csv"
	SummariesFile = "summaries.csv"
	CAPMFile      = "capm.csv"
)

// CSVRecorder writes the latest run as flat tables for plotting tools. Each run replaces
// the previous files. Undefined values are empty cells.
type CSVRecorder struct {
	dir string
	log zerolog.Logger
}

// NewCSVRecorder creates the output directory if needed.
func NewCSVRecorder(log zerolog.Logger, dir string) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &CSVRecorder{dir: dir, log: log.With().Str("component", "csv").Logger()}, nil
}

func (c *CSVRecorder) RecordRun(ctx context.Context, rep *pipeline.Report) error {
	writers := []struct {
		name  string
		write func(*pipeline.Report) [][]string
	}{
		{PricesFile, priceRows},
		{ReturnsFile, returnRows},
		{SummariesFile, summaryRows},
		{CAPMFile, capmRows},
	}
	for _, w := range writers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.writeFile(w.name, w.write(rep)); err != nil {
			return err
		}
	}
	c.log.Info().Str("dir", c.dir).Msg("csv tables written")
	return nil
}

func (c *CSVRecorder) Close() error { return nil }

// writeFile writes through a temp file and renames it, so readers never see a partial table.
func (c *CSVRecorder) writeFile(name string, rows [][]string) error {
	tmp, err := os.CreateTemp(c.dir, name+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	return os.Rename(tmp.Name(), filepath.Join(c.dir, name))
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func formatValue(v model.Value) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float)
}

// priceRows is one row per date of the union axis, with a close and rebased column per asset.
func priceRows(rep *pipeline.Report) [][]string {
	header := []string{"date"}
	lookups := make([]map[time.Time]model.Observation, len(rep.Assets))
	for i, a := range rep.Assets {
		header = append(header, a.Series.ID, a.Series.ID+"_rebased")
		lookups[i] = make(map[time.Time]model.Observation, a.Series.Len())
		for _, o := range a.Series.Observations {
			lookups[i][o.Date] = o
		}
	}
	rows := [][]string{header}
	for _, d := range rep.Dates {
		row := []string{d.Format(time.DateOnly)}
		for i := range rep.Assets {
			o := lookups[i][d]
			row = append(row, formatValue(o.Close), formatValue(o.Rebased))
		}
		rows = append(rows, row)
	}
	return rows
}

func returnRows(rep *pipeline.Report) [][]string {
	rows := [][]string{{"series", "kind", "date", "value"}}
	for _, rs := range rep.ReturnSeries() {
		for _, p := range rs.Points {
			rows = append(rows, []string{rs.ID, rs.Kind.String(), p.Date.Format(time.DateOnly), formatValue(p.Value)})
		}
	}
	return rows
}

func summaryRows(rep *pipeline.Report) [][]string {
	header := []string{"subject", "kind", "observations"}
	for _, m := range model.MetricOrder {
		header = append(header, string(m))
	}
	rows := [][]string{header}
	for _, s := range rep.Summaries() {
		row := []string{s.ID, s.Kind.String(), strconv.Itoa(s.Observations)}
		for _, m := range model.MetricOrder {
			v, ok := s.Get(m)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatFloat(v))
		}
		rows = append(rows, row)
	}
	return rows
}

func capmRows(rep *pipeline.Report) [][]string {
	rows := [][]string{{"subject", "benchmark", "kind", "alpha", "beta", "information_ratio", "observations", "from", "to"}}
	for _, c := range rep.CAPM() {
		rows = append(rows, []string{
			c.AssetID, c.BenchmarkID, c.Kind.String(),
			formatFloat(c.Alpha), formatFloat(c.Beta), formatFloat(c.InformationRatio),
			strconv.Itoa(c.Observations), c.From.Format(time.DateOnly), c.To.Format(time.DateOnly),
		})
	}
	return rows
}
