package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/pkg/errors"

	"github.com/lvdlvd/ecsfs/fsys/ecs"
)

// Add creates name and copies r into it. It returns the number of bytes
// stored, which is less than the input when the image fills up.
func Add(f *ecs.FS, name string, r io.Reader) (int64, error) {
	if err := f.Create(name); err != nil {
		return 0, err
	}
	file, err := f.OpenFile(name)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(file, r)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// Rm deletes a file.
func Rm(f *ecs.FS, name string) error {
	return f.Delete(name)
}

// AddCmd implements subcommands.Command for the "add" command.
type AddCmd struct{}

// Name implements subcommands.Command.Name.
func (*AddCmd) Name() string {
	return "add"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*AddCmd) Synopsis() string {
	return "copies a host file into an image"
}

// Usage implements subcommands.Command.Usage.
func (*AddCmd) Usage() string {
	return "add <image> <host file> [name]\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*AddCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*AddCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() < 2 || f.NArg() > 3 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	env := args[0].(*Env)
	host := f.Arg(1)
	name := filepath.Base(host)
	if f.NArg() == 3 {
		name = f.Arg(2)
	}

	src, err := os.Open(host)
	if err != nil {
		return env.exit("add", err)
	}
	defer src.Close()
	st, err := src.Stat()
	if err != nil {
		return env.exit("add", err)
	}

	return env.exit("add", env.withMount(f.Arg(0), func(mnt *ecs.FS) error {
		n, err := Add(mnt, name, src)
		if err != nil && !errors.Is(err, io.ErrShortWrite) {
			return err
		}
		fmt.Fprintf(env.Stdout, "Wrote file '%s' (%d/%d bytes)\n", name, n, st.Size())
		if err != nil {
			return errors.Wrap(err, "image is full")
		}
		return nil
	}))
}

// RmCmd implements subcommands.Command for the "rm" command.
type RmCmd struct{}

// Name implements subcommands.Command.Name.
func (*RmCmd) Name() string {
	return "rm"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*RmCmd) Synopsis() string {
	return "deletes a file from an image"
}

// Usage implements subcommands.Command.Usage.
func (*RmCmd) Usage() string {
	return "rm <image> <name>\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*RmCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*RmCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	env := args[0].(*Env)
	name := f.Arg(1)
	return env.exit("rm", env.withMount(f.Arg(0), func(mnt *ecs.FS) error {
		if err := Rm(mnt, name); err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "Removed file '%s'\n", name)
		return nil
	}))
}
