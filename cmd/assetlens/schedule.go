package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"AssetLens/internal/scheduler"
)

type scheduleCmd struct {
	common     commonFlags
	runOnStart bool
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "recompute the report on a cron schedule" }
func (*scheduleCmd) Usage() string {
	return `schedule [-config <path>] [-run-on-start]

  Runs until interrupted, recomputing the report on schedule.cron (six fields,
  seconds first). When Telegram is configured the digest and charts are delivered
  after every run and the bot answers /run, /report and /next.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	c.common.register(f)
	f.BoolVar(&c.runOnStart, "run-on-start", false, "recompute once immediately (or set schedule.run_on_start)")
}

func (c *scheduleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(&c.common)
	if err != nil {
		exitErr(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, a.log, a.runner)
	if err := sched.Register(a.cfg.Schedule.Cron); err != nil {
		exitErr(err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()

	if a.tg != nil {
		go a.tg.StartPolling(ctx, sched.HandleCommand)
		a.log.Info().Msg("telegram polling started")
	}

	if c.runOnStart || a.cfg.Schedule.RunOnStart {
		a.log.Info().Msg("run on start enabled, recomputing now")
		sched.RunAsync()
	}

	a.log.Info().Str("cron", a.cfg.Schedule.Cron).Msg("AssetLens is running, press Ctrl+C to stop")
	<-ctx.Done()
	a.log.Info().Msg("shutdown signal received, stopping")
	return subcommands.ExitSuccess
}
