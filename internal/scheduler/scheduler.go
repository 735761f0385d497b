package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"AssetLens/internal/notifier"
)

// Scheduler recomputes the batch on a cron schedule.
type Scheduler struct {
	Cron   *cron.Cron
	Runner *Runner
	Ctx    context.Context

	log        zerolog.Logger
	running    sync.Mutex
	background sync.WaitGroup
}

// NewScheduler creates a new Scheduler. Cron expressions include a seconds field.
func NewScheduler(ctx context.Context, log zerolog.Logger, runner *Runner) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Runner: runner,
		Ctx:    ctx,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the recompute task.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.recompute); err != nil {
		return fmt.Errorf("register recompute task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running recomputes to finish,
// including those started by RunAsync.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Wait()
	s.log.Info().Msg("scheduler stopped")
}

// Wait blocks until every recompute started by RunAsync has returned.
func (s *Scheduler) Wait() { s.background.Wait() }

// RunNow executes the recompute task immediately and waits for it.
// It reports false if a recompute was already in progress.
func (s *Scheduler) RunNow() bool {
	if !s.running.TryLock() {
		s.log.Warn().Msg("recompute already running, skipped")
		return false
	}
	defer s.running.Unlock()
	s.recomputeLocked()
	return true
}

// RunAsync starts a recompute in the background (chat trigger, run_on_start).
// It reports false if a recompute was already in progress.
func (s *Scheduler) RunAsync() bool {
	if !s.running.TryLock() {
		s.log.Warn().Msg("recompute already running, skipped")
		return false
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer s.running.Unlock()
		s.recomputeLocked()
	}()
	return true
}

func (s *Scheduler) recompute() { s.RunNow() }

// recomputeLocked runs the batch; the caller holds s.running.
func (s *Scheduler) recomputeLocked() {
	s.log.Info().Msg("running recompute")
	rep, err := s.Runner.Run(s.Ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("recompute failed")
		return
	}
	s.log.Info().Int("assets", len(rep.Assets)).Int("portfolios", len(rep.Portfolios)).Msg("recompute done")
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	verb := ""
	if f := strings.Fields(command); len(f) > 0 {
		verb = strings.ToLower(f[0])
	}
	switch verb {
	case "/run":
		if !s.RunAsync() {
			return "A recompute is already running."
		}
		return "Recompute started."
	case "/report":
		rep := s.Runner.Last()
		if rep == nil {
			return "No report yet. Send /run to compute one."
		}
		return notifier.FormatTelegramDigest(rep, s.Runner.TopN)
	case "/next":
		entries := s.Cron.Entries()
		if len(entries) == 0 {
			return "Nothing scheduled."
		}
		return "Next recompute: " + entries[0].Next.Format("2006-01-02 15:04 MST")
	default:
		return "Commands:\n/run  recompute now\n/report  latest digest\n/next  next scheduled run"
	}
}
