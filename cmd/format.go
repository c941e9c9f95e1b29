package cmd

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/subcommands"
	"github.com/pkg/errors"

	"github.com/lvdlvd/ecsfs/fsys/ecs"
)

// FormatCmd implements subcommands.Command for the "format" command.
type FormatCmd struct{}

// Name implements subcommands.Command.Name.
func (*FormatCmd) Name() string {
	return "format"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*FormatCmd) Synopsis() string {
	return "creates an empty image"
}

// Usage implements subcommands.Command.Usage.
func (*FormatCmd) Usage() string {
	return "format <image> <data blocks>\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*FormatCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*FormatCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	env := args[0].(*Env)
	image := f.Arg(0)

	n, err := strconv.Atoi(f.Arg(1))
	if err != nil {
		return env.exit("format", errors.Wrap(err, "data block count"))
	}
	if err := ecs.FormatFile(image, n, env.diskOptions()...); err != nil {
		return env.exit("format", err)
	}
	env.Log.WithField("image", image).WithField("data_blocks", n).Info("formatted image")
	fmt.Fprintf(env.Stdout, "Created virtual disk '%s' with '%d' data blocks\n", image, n)
	return subcommands.ExitSuccess
}
