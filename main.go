// ecsfs - Create and edit ECS150FS disk images
//
// Usage:
//
//	ecsfs [-config file] [-log-level level] <command> [args]
//
// Commands: format, info, ls, add, rm, cat, stat.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	log "github.com/sirupsen/logrus"

	"github.com/lvdlvd/ecsfs/cmd"
	"github.com/lvdlvd/ecsfs/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	top := flag.NewFlagSet("ecsfs", flag.ContinueOnError)
	top.SetOutput(stderr)
	configPath := top.String("config", "", "path to a TOML configuration file")
	logLevel := top.String("log-level", "", "log level, overriding the configuration")
	logFormat := top.String("log-format", "", "log format (plain, text or json), overriding the configuration")
	noLock := top.Bool("no-lock", false, "do not lock images while they are open")

	cdr := subcommands.NewCommander(top, "ecsfs")
	cdr.Register(cdr.HelpCommand(), "")
	cdr.Register(cdr.FlagsCommand(), "")
	cdr.Register(new(cmd.FormatCmd), "")
	cdr.Register(new(cmd.InfoCmd), "")
	cdr.Register(new(cmd.LsCmd), "")
	cdr.Register(new(cmd.AddCmd), "")
	cdr.Register(new(cmd.RmCmd), "")
	cdr.Register(new(cmd.CatCmd), "")
	cdr.Register(new(cmd.StatCmd), "")

	if err := top.Parse(args); err != nil {
		return int(subcommands.ExitUsageError)
	}

	conf := config.Default()
	if *configPath != "" {
		var err error
		if conf, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(stderr, "ecsfs: %v\n", err)
			return int(subcommands.ExitFailure)
		}
	}
	if *logLevel != "" {
		conf.LogLevel = *logLevel
	}
	if *logFormat != "" {
		conf.LogFormat = *logFormat
	}
	if *noLock {
		conf.Lock = false
	}

	logger, err := conf.NewLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ecsfs: %v\n", err)
		return int(subcommands.ExitUsageError)
	}

	env := &cmd.Env{
		Config: conf,
		Log:    log.NewEntry(logger),
		Stdout: stdout,
		Stderr: stderr,
	}
	return int(cdr.Execute(context.Background(), env))
}
