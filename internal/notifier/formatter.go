package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"AssetLens/internal/model"
	"AssetLens/internal/pipeline"
)

func pct(v float64) string { return fmt.Sprintf("%+.2f%%", v*100) }

func position(v model.Value) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", v.Float*100)
}

func metric(s *model.PerformanceSummary, m model.Metric) float64 {
	v, _ := s.Get(m)
	return v
}

// FormatMarkdownReport renders a run as markdown tables for terminal display.
func FormatMarkdownReport(rep *pipeline.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# AssetLens report | %s\n\n", rep.RunAt.Format("2006-01-02 15:04 MST")))
	if len(rep.Dates) > 0 {
		b.WriteString(fmt.Sprintf("Monthly window: %s to %s (%d months)\n\n",
			rep.Dates[0].Format("Jan 2006"), rep.Dates[len(rep.Dates)-1].Format("Jan 2006"), len(rep.Dates)))
	}

	b.WriteString("## Assets (log returns)\n\n")
	b.WriteString("| Asset | Months | Mean | Std | Median | Q1 | Q3 | Ann. return | Ann. vol | Sharpe | Max DD | 12m pos |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, a := range rep.Assets {
		s := a.Summary
		if s == nil {
			b.WriteString(fmt.Sprintf("| %s | %d | n/a | | | | | | | | %s | %s |\n",
				a.Series.ID, a.Series.Len(), pct(a.MaxDrawdown), position(a.RangePosition)))
			continue
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s | %s | %s | %s | %.3f | %s | %s |\n",
			s.ID, s.Observations,
			pct(metric(s, model.MetricMean)), pct(metric(s, model.MetricStdDev)),
			pct(metric(s, model.MetricMedian)), pct(metric(s, model.MetricQ1)), pct(metric(s, model.MetricQ3)),
			pct(metric(s, model.MetricAnnualizedReturn)), pct(metric(s, model.MetricAnnualizedVolatility)),
			metric(s, model.MetricSharpeRatio), pct(a.MaxDrawdown), position(a.RangePosition)))
	}
	b.WriteString("\n")

	if len(rep.AssetCAPM) > 0 {
		b.WriteString("## CAPM (assets)\n\n")
		writeCAPM(&b, rep.AssetCAPM)
	}

	if len(rep.Portfolios) > 0 {
		b.WriteString("## Portfolios (discrete returns)\n\n")
		b.WriteString("| Portfolio | Months | Growth | Max DD | Ann. return | Ann. vol | Sharpe |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
		for _, p := range rep.Portfolios {
			s := p.Summary
			if s == nil {
				b.WriteString(fmt.Sprintf("| %s | %d | %.2fx | %s | n/a | n/a | n/a |\n",
					p.Series.ID, len(p.Series.Defined()), p.Growth, pct(p.MaxDrawdown)))
				continue
			}
			b.WriteString(fmt.Sprintf("| %s | %d | %.2fx | %s | %s | %s | %.3f |\n",
				s.ID, s.Observations, p.Growth, pct(p.MaxDrawdown),
				pct(metric(s, model.MetricAnnualizedReturn)), pct(metric(s, model.MetricAnnualizedVolatility)),
				metric(s, model.MetricSharpeRatio)))
		}
		b.WriteString("\n")
	}

	if len(rep.PortfolioCAPM) > 0 {
		b.WriteString("## CAPM (portfolios)\n\n")
		writeCAPM(&b, rep.PortfolioCAPM)
	}

	if len(rep.Failures) > 0 {
		b.WriteString("## Skipped\n\n")
		for _, f := range rep.Failures {
			b.WriteString(fmt.Sprintf("- **%s** `%s`: %v\n", f.Entity, f.Stage, f.Err))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeCAPM(b *strings.Builder, results []model.CAPMResult) {
	b.WriteString("| Subject | Benchmark | Alpha | Beta | Info ratio | Months | Window |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---|\n")
	for _, c := range results {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %.3f | %.3f | %d | %s to %s |\n",
			c.AssetID, c.BenchmarkID, pct(c.Alpha), c.Beta, c.InformationRatio, c.Observations,
			c.From.Format("2006-01"), c.To.Format("2006-01")))
	}
	b.WriteString("\n")
}

// FormatTelegramDigest formats a short HTML summary of a run for chat delivery:
// each asset's annualized figures and the portfolios ranked by Sharpe ratio.
func FormatTelegramDigest(rep *pipeline.Report, top int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>AssetLens</b> | %s\n\n", rep.RunAt.Format(time.DateOnly)))

	b.WriteString("<b>Assets</b>\n")
	for _, a := range rep.Assets {
		if a.Summary == nil {
			b.WriteString(fmt.Sprintf("  %s: n/a\n", html.EscapeString(a.Series.ID)))
			continue
		}
		s := a.Summary
		b.WriteString(fmt.Sprintf("  %s: ret %s | vol %s | sharpe %.2f | dd %s\n",
			html.EscapeString(s.ID),
			pct(metric(s, model.MetricAnnualizedReturn)), pct(metric(s, model.MetricAnnualizedVolatility)),
			metric(s, model.MetricSharpeRatio), pct(a.MaxDrawdown)))
	}

	ranked := make([]pipeline.PortfolioResult, 0, len(rep.Portfolios))
	for _, p := range rep.Portfolios {
		if p.Summary != nil {
			ranked = append(ranked, p)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return metric(ranked[i].Summary, model.MetricSharpeRatio) > metric(ranked[j].Summary, model.MetricSharpeRatio)
	})
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	if len(ranked) > 0 {
		b.WriteString("\n<b>Best portfolios by Sharpe</b>\n")
		for i, p := range ranked {
			b.WriteString(fmt.Sprintf("  %d. %s: sharpe %.2f | growth %.2fx\n",
				i+1, html.EscapeString(p.Series.ID), metric(p.Summary, model.MetricSharpeRatio), p.Growth))
		}
	}

	if n := len(rep.Failures); n > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d item(s) skipped\n", n))
	}
	return b.String()
}
