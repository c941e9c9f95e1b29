package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"github.com/lvdlvd/ecsfs/fsys"
	"github.com/lvdlvd/ecsfs/fsys/ecs"
)

// Info prints the layout and free space of a mounted filesystem.
func Info(f *ecs.FS, out io.Writer) error {
	info, err := f.Info()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "FS Info:")
	fmt.Fprintf(out, "total_blk_count=%d\n", info.TotalBlocks)
	fmt.Fprintf(out, "fat_blk_count=%d\n", info.FATBlocks)
	fmt.Fprintf(out, "rdir_blk=%d\n", info.RootDirBlock)
	fmt.Fprintf(out, "data_blk=%d\n", info.DataStart)
	fmt.Fprintf(out, "data_blk_count=%d\n", info.DataBlocks)
	fmt.Fprintf(out, "fat_free_ratio=%d/%d\n", info.FreeDataBlocks, info.DataBlocks)
	fmt.Fprintf(out, "rdir_free_ratio=%d/%d\n", info.FreeFiles, ecs.MaxFiles)
	return nil
}

// FreeRanges prints the byte ranges of the image held by free blocks.
func FreeRanges(fb fsys.FreeBlocker, out io.Writer) error {
	ranges, err := fb.FreeBlocks()
	if err != nil {
		return err
	}
	for _, r := range ranges {
		fmt.Fprintf(out, "free: %#x-%#x (%d bytes)\n", r.Start, r.End, r.Size())
	}
	fmt.Fprintf(out, "free_bytes=%d\n", fsys.TotalSize(ranges))
	return nil
}

// InfoCmd implements subcommands.Command for the "info" command.
type InfoCmd struct {
	free bool
}

// Name implements subcommands.Command.Name.
func (*InfoCmd) Name() string {
	return "info"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*InfoCmd) Synopsis() string {
	return "prints the layout and free space of an image"
}

// Usage implements subcommands.Command.Usage.
func (*InfoCmd) Usage() string {
	return "info [-free] <image>\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *InfoCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.free, "free", false, "also list the free byte ranges of the image")
}

// Execute implements subcommands.Command.Execute.
func (c *InfoCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	env := args[0].(*Env)
	return env.exit("info", env.withMount(f.Arg(0), func(mnt *ecs.FS) error {
		if err := Info(mnt, env.Stdout); err != nil {
			return err
		}
		if c.free {
			return FreeRanges(mnt, env.Stdout)
		}
		return nil
	}))
}
