// Command picker selects one high-dividend Japanese stock per week and records the purchase.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"DividendSentinel/internal/config"
)

var configPath = flag.String("config", "", "path to the YAML config (default $CONFIG_PATH or "+config.DefaultPath+")")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&runCmd{}, "pipeline")
	commander.Register(&scheduleCmd{}, "pipeline")
	commander.Register(&holdingsCmd{}, "reports")
	commander.Register(&candidatesCmd{}, "reports")
	commander.Register(&historyCmd{}, "reports")
	commander.Register(&migrateCmd{}, "ledger")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
