// Package cmd implements the ecsfs commands. Each command is a
// subcommands.Command taking an *Env as its first Execute argument; the
// reporting functions it wraps are exported for reuse.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lvdlvd/ecsfs/config"
	"github.com/lvdlvd/ecsfs/detect"
	"github.com/lvdlvd/ecsfs/disk"
	"github.com/lvdlvd/ecsfs/fsys/ecs"
)

// Env is the state shared by all commands.
type Env struct {
	Config *config.Config
	Log    *log.Entry
	Stdout io.Writer
	Stderr io.Writer
}

func (e *Env) diskOptions() []disk.Option {
	opts := []disk.Option{disk.WithLogger(e.Log)}
	if !e.Config.Lock {
		opts = append(opts, disk.NoLock())
	}
	return opts
}

// mount mounts image. When the image is not ECS150FS the error names the
// format that was found instead.
func (e *Env) mount(image string) (*ecs.FS, error) {
	f, err := ecs.MountFile(image, ecs.WithLogger(e.Log), ecs.WithDiskOptions(e.diskOptions()...))
	if err == nil {
		return f, nil
	}
	if errors.Is(err, ecs.ErrInvalidSignature) {
		if t := probe(image); t != detect.Unknown {
			return nil, errors.Wrapf(err, "image holds %s", t)
		}
	}
	return nil, err
}

func probe(image string) detect.Type {
	f, err := os.Open(image)
	if err != nil {
		return detect.Unknown
	}
	defer f.Close()
	t, err := detect.Detect(f)
	if err != nil {
		return detect.Unknown
	}
	return t
}

// withMount runs fn on the mounted image and unmounts it afterwards,
// returning the first error.
func (e *Env) withMount(image string, fn func(*ecs.FS) error) error {
	f, err := e.mount(image)
	if err != nil {
		return err
	}
	err = fn(f)
	if uerr := f.Unmount(); err == nil {
		err = uerr
	}
	return err
}

// exit reports err on stderr and maps it to an exit status.
func (e *Env) exit(name string, err error) subcommands.ExitStatus {
	if err != nil {
		fmt.Fprintf(e.Stderr, "ecsfs %s: %v\n", name, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
