// Package scheduler runs the pick pipeline on a cron schedule and answers chat commands.
package scheduler

import (
	"context"
	"fmt"
	"html"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"DividendSentinel/internal/notifier"
	"DividendSentinel/internal/runner"
)

// Scheduler manages the cron task.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   *runner.Runner
	Notifier notifier.Notifier
	Ctx      context.Context
	// CandidateLimit caps the rows listed by the candidates command.
	CandidateLimit int
	log            zerolog.Logger

	mu      sync.Mutex
	stopped bool
	active  sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, r *runner.Runner, n notifier.Notifier, log zerolog.Logger) *Scheduler {
	l := log.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		Cron:           cron.New(cron.WithSeconds(), cron.WithLogger(cronLogger{l})),
		Runner:         r,
		Notifier:       n,
		Ctx:            ctx,
		CandidateLimit: 10,
		log:            l,
	}
}

// RegisterWeekly registers the weekly pick.
func (s *Scheduler) RegisterWeekly(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.weeklyTask); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks and chat
// commands to finish. Work requested after Stop is dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	<-s.Cron.Stop().Done()
	s.active.Wait()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.active.Add(1)
	return true
}

// RunWeeklyNow executes the weekly task immediately.
func (s *Scheduler) RunWeeklyNow() {
	s.weeklyTask()
}

func (s *Scheduler) weeklyTask() {
	s.run(runner.Options{})
}

func (s *Scheduler) run(opts runner.Options) {
	if !s.begin() {
		s.log.Warn().Msg("scheduler stopped, run skipped")
		return
	}
	defer s.active.Done()
	s.log.Info().Bool("dry_run", opts.DryRun).Msg("running weekly pick")
	if _, err := s.Runner.Run(s.Ctx, opts); err != nil {
		s.trySend(fmt.Sprintf("❌ 週次の銘柄選定に失敗しました: %s", html.EscapeString(err.Error())))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/run", "今週の銘柄":
		s.run(runner.Options{})
		return ""
	case "/dryrun":
		s.run(runner.Options{DryRun: true})
		return ""
	case "/holdings", "保有銘柄":
		if !s.begin() {
			return ""
		}
		defer s.active.Done()
		_, h, err := s.Runner.LoadHoldings(ctx)
		if err != nil {
			return fmt.Sprintf("❌ 保有銘柄の取得に失敗しました: %s", html.EscapeString(err.Error()))
		}
		return notifier.FormatHoldings(h)
	case "/candidates", "高配当候補":
		if !s.begin() {
			return ""
		}
		defer s.active.Done()
		rows, _, err := s.Runner.LoadCandidates(ctx, s.Runner.NewRunID(), false)
		if err != nil {
			return fmt.Sprintf("❌ 候補の取得に失敗しました: %s", html.EscapeString(err.Error()))
		}
		return notifier.FormatCandidates(rows, s.CandidateLimit)
	default:
		return "利用可能なコマンド:\n• /run 今週の銘柄を選定\n• /dryrun 記録せずに選定\n• /holdings 保有銘柄\n• /candidates 高配当候補"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(s.Ctx, text); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ log zerolog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
