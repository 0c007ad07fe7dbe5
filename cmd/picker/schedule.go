package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"DividendSentinel/internal/scheduler"
)

type scheduleCmd struct {
	now bool
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "run the weekly pick on the configured cron schedule" }
func (*scheduleCmd) Usage() string {
	return `picker [-config <path>] schedule [-now]

  Runs until SIGINT or SIGTERM. When Telegram is configured the bot also
  answers /run, /dryrun, /holdings and /candidates.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.now, "now", os.Getenv("RUN_ON_START") == "true", "run once immediately on start")
}

func (c *scheduleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := openApp(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	sched := scheduler.NewScheduler(ctx, a.runner, a.runner.Notifier, a.log)
	if err := sched.RegisterWeekly(a.cfg.Schedule.WeeklyCron); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()

	if a.telegram != nil {
		go a.telegram.StartPolling(ctx, sched.HandleCommand)
		a.log.Info().Msg("telegram polling started")
	}
	if c.now {
		a.log.Info().Msg("running weekly pick now")
		go sched.RunWeeklyNow()
	}

	a.log.Info().Str("cron", a.cfg.Schedule.WeeklyCron).Msg("picker is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	a.log.Info().Msg("shutdown signal received, stopping")
	cancel()
	return subcommands.ExitSuccess
}
