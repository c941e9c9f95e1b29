package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"

	"github.com/google/subcommands"
	"github.com/pkg/errors"

	"github.com/lvdlvd/ecsfs/fsys"
	"github.com/lvdlvd/ecsfs/fsys/ecs"
)

// Cat copies the contents of a file to the given writer.
func Cat(fsys fs.FS, name string, out io.Writer) error {
	file, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return errors.Errorf("%s: is a directory", name)
	}
	_, err = io.Copy(out, file)
	return err
}

// Stat shows the size of a file and where its data lives in the image.
func Stat(fsys fs.FS, name string, out io.Writer) error {
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "  File: %s\n", info.Name())
	fmt.Fprintf(out, "  Size: %d\n", info.Size())
	fmt.Fprintf(out, "  Mode: %s\n", info.Mode())
	return nil
}

// Extents prints the extents of a file, one per line.
func Extents(em fsys.ExtentMapper, name string, out io.Writer) error {
	exts, err := em.FileExtents(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Extents: %d\n", len(exts))
	for _, e := range exts {
		fmt.Fprintf(out, "  logical=%d physical=%#x length=%d\n", e.Logical, e.Physical, e.Length)
	}
	return nil
}

// CatCmd implements subcommands.Command for the "cat" command.
type CatCmd struct{}

// Name implements subcommands.Command.Name.
func (*CatCmd) Name() string {
	return "cat"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*CatCmd) Synopsis() string {
	return "writes a file of an image to stdout"
}

// Usage implements subcommands.Command.Usage.
func (*CatCmd) Usage() string {
	return "cat <image> <name>\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*CatCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*CatCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	env := args[0].(*Env)
	return env.exit("cat", env.withMount(f.Arg(0), func(mnt *ecs.FS) error {
		return Cat(mnt.IOFS(), f.Arg(1), env.Stdout)
	}))
}

// StatCmd implements subcommands.Command for the "stat" command.
type StatCmd struct{}

// Name implements subcommands.Command.Name.
func (*StatCmd) Name() string {
	return "stat"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*StatCmd) Synopsis() string {
	return "shows the size and extents of a file"
}

// Usage implements subcommands.Command.Usage.
func (*StatCmd) Usage() string {
	return "stat <image> <name>\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*StatCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*StatCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	env := args[0].(*Env)
	name := f.Arg(1)
	return env.exit("stat", env.withMount(f.Arg(0), func(mnt *ecs.FS) error {
		if err := Stat(mnt.IOFS(), name, env.Stdout); err != nil {
			return err
		}
		return Extents(mnt, name, env.Stdout)
	}))
}
