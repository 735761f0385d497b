package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"AssetLens/internal/notifier"
)

type analyzeCmd struct {
	common commonFlags
	style  string
	raw    bool
	notify bool
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "compute the comparative report once and print it" }
func (*analyzeCmd) Usage() string {
	return `analyze [-config <path>] [-style dark|light|notty] [-raw] [-notify]

  Loads the configured price tables, aligns them on the monthly grid and computes
  returns, metrics, CAPM regressions and the portfolio splits. Results are written
  to the configured sinks and the report is printed to stdout.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	c.common.register(f)
	f.StringVar(&c.style, "style", "dark", "glamour style used to render the report")
	f.BoolVar(&c.raw, "raw", false, "print the markdown report without rendering")
	f.BoolVar(&c.notify, "notify", false, "deliver the digest to Telegram when configured")
}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "Error: analyze takes no positional arguments.")
		return subcommands.ExitUsageError
	}

	a, err := newApp(&c.common)
	if err != nil {
		exitErr(err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	if !c.notify {
		a.runner.Notifier = nil
	}

	rep, err := a.runner.Run(ctx)
	if err != nil {
		exitErr(err)
		return subcommands.ExitFailure
	}

	md := notifier.FormatMarkdownReport(rep)
	if c.raw {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	out, err := glamour.Render(md, c.style)
	if err != nil {
		a.log.Warn().Err(err).Msg("render report, printing markdown")
		out = md
	}
	fmt.Print(out)
	return subcommands.ExitSuccess
}
