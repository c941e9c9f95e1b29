// Package ecs implements the ECS150FS filesystem: a flat root directory and
// a 16-bit file allocation table over a device of 4096-byte blocks.
//
// Block 0 holds the superblock, followed by the FAT blocks, one root
// directory block and the data region. Entry i of the FAT describes data
// block i, which lives at device block dataStart+i. Entry 0 is reserved.
//
// The FAT and root directory are loaded at mount and written back only by
// Sync and Unmount. File data is written through to the device as it is
// produced. An FS is not safe for concurrent use.
package ecs

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lvdlvd/ecsfs/disk"
	"github.com/lvdlvd/ecsfs/fsys"
)

const (
	BlockSize = disk.BlockSize
	// Signature is the first 8 bytes of every image.
	Signature = "ECS150FS"
	// MaxFiles is the capacity of the root directory.
	MaxFiles = 128
	// MaxOpen is the capacity of the descriptor table.
	MaxOpen = 32
	// MaxNameLen is the longest file name, in bytes.
	MaxNameLen = 15
	// MaxDataBlocks bounds the data region so FAT indexes never reach EOC.
	MaxDataBlocks = 8192
)

// FS is a mounted filesystem. The zero value is not mounted.
type FS struct {
	dev  disk.Device
	sb   superblock
	fat  *fat
	root *rootDir
	fds  [MaxOpen]descriptor
	buf  [BlockSize]byte
	log  *log.Entry
}

// Option configures Mount and MountFile.
type Option func(*options)

type options struct {
	log  *log.Entry
	disk []disk.Option
}

// WithLogger sets the logger for filesystem events.
func WithLogger(l *log.Entry) Option {
	return func(o *options) { o.log = l }
}

// WithDiskOptions passes options to disk.Open in MountFile.
func WithDiskOptions(opts ...disk.Option) Option {
	return func(o *options) { o.disk = append(o.disk, opts...) }
}

func buildOptions(opts []Option) options {
	o := options{log: log.NewEntry(log.StandardLogger())}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Mount reads the layout, FAT and root directory from dev. On success the
// FS owns dev and closes it in Unmount; on failure dev is left open.
func Mount(dev disk.Device, opts ...Option) (*FS, error) {
	o := buildOptions(opts)
	f := &FS{log: o.log}

	if err := dev.ReadBlock(0, f.buf[:]); err != nil {
		return nil, &DeviceError{Op: "read", Block: 0, Err: err}
	}
	sb, err := decodeSuperblock(f.buf[:])
	if err != nil {
		return nil, err
	}
	if err := sb.validate(dev.BlockCount()); err != nil {
		return nil, err
	}

	t, err := loadFAT(dev, sb, f.buf[:])
	if err != nil {
		return nil, err
	}
	if err := dev.ReadBlock(sb.rootDir, f.buf[:]); err != nil {
		return nil, &DeviceError{Op: "read", Block: sb.rootDir, Err: err}
	}

	f.dev, f.sb, f.fat, f.root = dev, sb, t, decodeRootDir(f.buf[:])
	f.log.WithFields(log.Fields{
		"blocks":      sb.totalBlocks,
		"data_blocks": sb.dataBlocks,
		"fat_blocks":  sb.fatBlocks,
	}).Debug("mounted filesystem")
	return f, nil
}

// MountFile opens the image at path and mounts it.
func MountFile(path string, opts ...Option) (*FS, error) {
	o := buildOptions(opts)
	dev, err := disk.Open(path, append([]disk.Option{disk.WithLogger(o.log)}, o.disk...)...)
	if err != nil {
		return nil, err
	}
	f, err := Mount(dev, WithLogger(o.log.WithField("image", path)))
	if err != nil {
		dev.Close()
		return nil, errors.Wrapf(err, "mounting %s", path)
	}
	return f, nil
}

func (f *FS) mounted() bool { return f != nil && f.dev != nil }

// Sync writes the FAT and root directory to the device.
func (f *FS) Sync() error {
	if !f.mounted() {
		return ErrNotMounted
	}
	if err := f.fat.store(f.dev, f.sb, f.buf[:]); err != nil {
		return err
	}
	f.root.encode(f.buf[:])
	if err := f.dev.WriteBlock(f.sb.rootDir, f.buf[:]); err != nil {
		return &DeviceError{Op: "write", Block: f.sb.rootDir, Err: err}
	}
	return nil
}

// Unmount flushes metadata and closes the device. It fails while any
// descriptor is open. After Unmount every method returns ErrNotMounted.
func (f *FS) Unmount() error {
	if !f.mounted() {
		return ErrNotMounted
	}
	if n := f.openCount(); n > 0 {
		return errors.Wrapf(ErrFileBusy, "%d open descriptors", n)
	}
	if err := f.Sync(); err != nil {
		return err
	}
	err := f.dev.Close()
	f.dev, f.fat, f.root = nil, nil, nil
	f.log.Debug("unmounted filesystem")
	return errors.Wrap(err, "closing device")
}

// Info describes the layout and usage of a mounted filesystem.
type Info struct {
	TotalBlocks  int
	FATBlocks    int
	RootDirBlock int
	DataStart    int
	DataBlocks   int
	// FreeDataBlocks counts zero FAT entries out of DataBlocks.
	FreeDataBlocks int
	// FreeFiles counts free root directory slots out of MaxFiles.
	FreeFiles int
}

// Info reports the layout and free space.
func (f *FS) Info() (Info, error) {
	if !f.mounted() {
		return Info{}, ErrNotMounted
	}
	return Info{
		TotalBlocks:    f.sb.totalBlocks,
		FATBlocks:      f.sb.fatBlocks,
		RootDirBlock:   f.sb.rootDir,
		DataStart:      f.sb.dataStart,
		DataBlocks:     f.sb.dataBlocks,
		FreeDataBlocks: f.fat.free(),
		FreeFiles:      f.root.free(),
	}, nil
}

func (f *FS) offset(blk int) int64 {
	return int64(f.sb.dataStart+blk) * BlockSize
}

// FreeBlocks returns the byte ranges of the image occupied by free data
// blocks.
func (f *FS) FreeBlocks() ([]fsys.Range, error) {
	if !f.mounted() {
		return nil, ErrNotMounted
	}
	var ranges []fsys.Range
	for i := 1; i < f.sb.dataBlocks; i++ {
		if f.fat.entries[i] == 0 {
			ranges = fsys.AppendRange(ranges, fsys.Range{Start: f.offset(i), End: f.offset(i + 1)})
		}
	}
	return ranges, nil
}

// FileExtents returns where the bytes of a file live in the image.
func (f *FS) FileExtents(name string) ([]fsys.Extent, error) {
	if !f.mounted() {
		return nil, ErrNotMounted
	}
	if err := validName(name); err != nil {
		return nil, err
	}
	slot := f.root.lookup(name)
	if slot < 0 {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	e := &f.root[slot]
	if !e.head.ok {
		return nil, nil
	}
	blocks, err := f.fat.chain(e.head.index)
	if err != nil {
		return nil, errors.Wrapf(err, "%q", name)
	}

	var exts []fsys.Extent
	var logical int64
	for _, b := range blocks {
		n := min(int64(BlockSize), int64(e.size)-logical)
		if n <= 0 {
			break
		}
		exts = fsys.AppendExtent(exts, fsys.Extent{Logical: logical, Physical: f.offset(int(b)), Length: n})
		logical += n
	}
	return exts, nil
}
