package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"AssetLens/internal/model"
)

// ErrBadTable is returned for a table that cannot be read as a dated series.
var ErrBadTable = errors.New("bad input table")

// DailyFile is a daily OHLCV table for one asset.
type DailyFile struct {
	ID       string
	Category model.AssetCategory
	Path     string
}

// MacroColumn maps one column of the monthly table to an asset.
type MacroColumn struct {
	Column   string
	ID       string
	Category model.AssetCategory
}

// MacroFile is the monthly table holding several single-value series side by side.
type MacroFile struct {
	Path    string
	Columns []MacroColumn
}

// CSVSource reads series from local CSV exports.
type CSVSource struct {
	Daily []DailyFile
	Macro *MacroFile
	log   zerolog.Logger
}

// NewCSVSource creates a CSV source. macro may be nil.
func NewCSVSource(log zerolog.Logger, daily []DailyFile, macro *MacroFile) *CSVSource {
	return &CSVSource{
		Daily: daily,
		Macro: macro,
		log:   log.With().Str("component", "collector").Logger(),
	}
}

func (s *CSVSource) Name() string { return "csv" }

// Load reads every configured table. A file that fails is reported in the joined error and
// does not stop the others.
func (s *CSVSource) Load(ctx context.Context) ([]model.AssetSeries, error) {
	var out []model.AssetSeries
	var errs []error

	for _, f := range s.Daily {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		series, err := readFile(f.Path, func(r io.Reader) (model.AssetSeries, error) {
			return ReadDaily(r, f.ID, f.Category)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.ID, err))
			continue
		}
		s.log.Debug().Str("asset", f.ID).Str("path", f.Path).Int("rows", series.Len()).Msg("loaded daily table")
		out = append(out, series)
	}

	if s.Macro != nil {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		fh, err := os.Open(s.Macro.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("macro: %w", err))
		} else {
			series, err := ReadMacro(fh, s.Macro.Columns)
			fh.Close()
			if err != nil {
				errs = append(errs, fmt.Errorf("macro: %w", err))
			}
			for _, m := range series {
				s.log.Debug().Str("asset", m.ID).Str("path", s.Macro.Path).Int("rows", m.Len()).Msg("loaded macro column")
			}
			out = append(out, series...)
		}
	}
	return out, errors.Join(errs...)
}

func readFile(path string, read func(io.Reader) (model.AssetSeries, error)) (model.AssetSeries, error) {
	fh, err := os.Open(path)
	if err != nil {
		return model.AssetSeries{}, err
	}
	defer fh.Close()
	return read(fh)
}

// ReadDaily parses a daily OHLCV table. Columns are located by header name,
// case-insensitively; only Date and Close (or Price) are required. Empty cells are Missing.
func ReadDaily(r io.Reader, id string, category model.AssetCategory) (model.AssetSeries, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return model.AssetSeries{}, err
	}
	cols := indexHeader(header)
	dateCol, ok := cols["date"]
	if !ok {
		return model.AssetSeries{}, fmt.Errorf("%w: no Date column", ErrBadTable)
	}
	closeCol, ok := cols["close"]
	if !ok {
		closeCol, ok = cols["price"]
	}
	if !ok {
		return model.AssetSeries{}, fmt.Errorf("%w: no Close column", ErrBadTable)
	}

	s := model.AssetSeries{ID: id, Category: category, Periodicity: model.Daily}
	for n, row := range rows {
		line := n + 2
		d, err := ParseDate(cell(row, dateCol))
		if err != nil {
			return model.AssetSeries{}, fmt.Errorf("%w: line %d: %v", ErrBadTable, line, err)
		}
		o := model.Observation{Date: d}
		fields := []struct {
			name string
			dst  *model.Value
		}{
			{"open", &o.Open}, {"high", &o.High}, {"low", &o.Low}, {"volume", &o.Volume},
		}
		for _, f := range fields {
			c, ok := cols[f.name]
			if !ok {
				continue
			}
			if *f.dst, err = ParseNumber(cell(row, c)); err != nil {
				return model.AssetSeries{}, fmt.Errorf("%w: line %d %s: %v", ErrBadTable, line, f.name, err)
			}
		}
		if o.Close, err = ParseNumber(cell(row, closeCol)); err != nil {
			return model.AssetSeries{}, fmt.Errorf("%w: line %d close: %v", ErrBadTable, line, err)
		}
		s.Observations = append(s.Observations, o)
	}
	reverseIfDescending(&s)
	return s, nil
}

// ReadMacro parses the monthly table into one series per configured column. An empty cell
// inside a column's range is kept as a Missing close; empty cells before the first or after
// the last value are dropped.
func ReadMacro(r io.Reader, columns []MacroColumn) ([]model.AssetSeries, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	cols := indexHeader(header)
	dateCol, ok := cols["date"]
	if !ok {
		return nil, fmt.Errorf("%w: no Date column", ErrBadTable)
	}

	var out []model.AssetSeries
	var errs []error
	for _, mc := range columns {
		c, ok := cols[strings.ToLower(strings.TrimSpace(mc.Column))]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w: no %q column", mc.ID, ErrBadTable, mc.Column))
			continue
		}
		s := model.AssetSeries{ID: mc.ID, Category: mc.Category, Periodicity: model.Monthly}
		var rowErr error
		for n, row := range rows {
			v, err := ParseNumber(cell(row, c))
			if err != nil {
				rowErr = fmt.Errorf("%s: %w: line %d: %v", mc.ID, ErrBadTable, n+2, err)
				break
			}
			if !v.Valid && strings.TrimSpace(cell(row, dateCol)) == "" {
				continue
			}
			d, err := ParseDate(cell(row, dateCol))
			if err != nil {
				rowErr = fmt.Errorf("%s: %w: line %d: %v", mc.ID, ErrBadTable, n+2, err)
				break
			}
			s.Observations = append(s.Observations, model.Observation{Date: d, Close: v})
		}
		if rowErr != nil {
			errs = append(errs, rowErr)
			continue
		}
		reverseIfDescending(&s)
		trimMissing(&s)
		out = append(out, s)
	}
	return out, errors.Join(errs...)
}

func readAll(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadTable, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file", ErrBadTable)
	}
	header = records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for _, rec := range records[1:] {
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.TrimSuffix(key, "*")
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return cols
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

// reverseIfDescending flips tables exported newest-first. Anything not strictly
// descending is kept as is and left to validation.
// trimMissing drops observations without a close from both ends of s.
func trimMissing(s *model.AssetSeries) {
	obs := s.Observations
	for len(obs) > 0 && !obs[0].Close.Valid {
		obs = obs[1:]
	}
	for len(obs) > 0 && !obs[len(obs)-1].Close.Valid {
		obs = obs[:len(obs)-1]
	}
	s.Observations = obs
}

func reverseIfDescending(s *model.AssetSeries) {
	obs := s.Observations
	if len(obs) < 2 {
		return
	}
	for i := 1; i < len(obs); i++ {
		if !obs[i].Date.Before(obs[i-1].Date) {
			return
		}
	}
	for i, j := 0, len(obs)-1; i < j; i, j = i+1, j-1 {
		obs[i], obs[j] = obs[j], obs[i]
	}
}

var dateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 02, 2006",
	"Jan 2, 2006",
	"02-Jan-2006",
	time.DateTime,
	time.RFC3339,
	"2006-01",
	"Jan 2006",
}

// ParseDate accepts the date layouts found in common market data exports. The result is UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

var magnitudes = map[string]float64{"K": 1e3, "M": 1e6, "B": 1e9}

// ParseNumber reads a numeric cell. Thousands separators are ignored and K/M/B volume
// suffixes are expanded. Empty, "-", "null", "NA" and "." cells are Missing. Infinities
// are rejected.
func ParseNumber(s string) (model.Value, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "null", "na", "n/a", "nan", ".":
		return model.Missing, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	mult := 1.0
	if n := len(s); n > 1 {
		if m, ok := magnitudes[strings.ToUpper(s[n-1:])]; ok {
			mult = m
			s = s[:n-1]
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Missing, fmt.Errorf("not a number: %q", s)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return model.Missing, fmt.Errorf("not a finite number: %q", s)
	}
	return model.Some(v * mult), nil
}
