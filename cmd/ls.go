package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"github.com/lvdlvd/ecsfs/fsys/ecs"
)

// eocIndex is how a file without data blocks reports its first block.
const eocIndex = 0xFFFF

// Ls lists the root directory in slot order.
func Ls(f *ecs.FS, out io.Writer) error {
	entries, err := f.List()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "FS Ls:")
	for _, e := range entries {
		head := e.Head
		if head == ecs.NoBlock {
			head = eocIndex
		}
		fmt.Fprintf(out, "file: %s, size: %d, data_blk: %d\n", e.Name, e.Size, head)
	}
	return nil
}

// LsCmd implements subcommands.Command for the "ls" command.
type LsCmd struct{}

// Name implements subcommands.Command.Name.
func (*LsCmd) Name() string {
	return "ls"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*LsCmd) Synopsis() string {
	return "lists the files of an image"
}

// Usage implements subcommands.Command.Usage.
func (*LsCmd) Usage() string {
	return "ls <image>\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*LsCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*LsCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	env := args[0].(*Env)
	return env.exit("ls", env.withMount(f.Arg(0), func(mnt *ecs.FS) error {
		return Ls(mnt, env.Stdout)
	}))
}
