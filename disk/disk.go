// Package disk implements the fixed-size block device that an ECS150FS
// image lives on. A device is either a regular file (File) or a byte slice
// held in memory (Memory).
package disk

import (
	"os"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// BlockSize is the size in bytes of every block on the device.
const BlockSize = 4096

var (
	// ErrOutOfRange is returned for a block index outside the device.
	ErrOutOfRange = errors.New("block index out of range")
	// ErrLocked is returned when another process holds the image lock.
	ErrLocked = errors.New("image is locked by another process")
	// ErrClosed is returned for I/O on a closed device.
	ErrClosed = errors.New("device is closed")
	// ErrBadSize is returned when a backing file is not a whole number of blocks.
	ErrBadSize = errors.New("image size is not a multiple of the block size")
)

// Device is a block addressed store. Buffers passed to ReadBlock and
// WriteBlock must be at least BlockSize bytes long; only the first
// BlockSize bytes are used.
type Device interface {
	ReadBlock(index int, buf []byte) error
	WriteBlock(index int, buf []byte) error
	BlockCount() int
	Close() error
}

// Option configures Open and Create.
type Option func(*options)

type options struct {
	lock bool
	log  *log.Entry
}

// NoLock skips the advisory lock on the backing file.
func NoLock() Option {
	return func(o *options) { o.lock = false }
}

// WithLogger sets the logger used for open and close events.
func WithLogger(l *log.Entry) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{lock: true, log: log.NewEntry(log.StandardLogger())}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// File is a Device backed by a regular file.
type File struct {
	f      *os.File
	lock   *flock.Flock
	blocks int
	log    *log.Entry
}

// Open opens an existing image for reading and writing. Unless NoLock is
// given the file is locked exclusively until Close.
func Open(path string, opts ...Option) (*File, error) {
	o := buildOptions(opts)

	// Open before locking so a missing image is not created by the lock.
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "opening image")
	}

	lk, err := acquire(path, o.lock)
	if err != nil {
		f.Close()
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		release(lk)
		return nil, errors.Wrap(err, "stat image")
	}
	if info.Size()%BlockSize != 0 {
		f.Close()
		release(lk)
		return nil, errors.Wrapf(ErrBadSize, "%s is %d bytes", path, info.Size())
	}

	d := &File{
		f:      f,
		lock:   lk,
		blocks: int(info.Size() / BlockSize),
		log:    o.log.WithField("image", path),
	}
	d.log.WithField("blocks", d.blocks).Debug("opened block device")
	return d, nil
}

// Create creates (or truncates) an image of the given number of zeroed
// blocks and opens it.
func Create(path string, blocks int, opts ...Option) (*File, error) {
	if blocks <= 0 {
		return nil, errors.Errorf("invalid block count %d", blocks)
	}
	o := buildOptions(opts)

	lk, err := acquire(path, o.lock)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		release(lk)
		return nil, errors.Wrap(err, "creating image")
	}
	if err := f.Truncate(int64(blocks) * BlockSize); err != nil {
		f.Close()
		release(lk)
		return nil, errors.Wrap(err, "sizing image")
	}

	d := &File{
		f:      f,
		lock:   lk,
		blocks: blocks,
		log:    o.log.WithField("image", path),
	}
	d.log.WithField("blocks", blocks).Debug("created block device")
	return d, nil
}

func acquire(path string, enabled bool) (*flock.Flock, error) {
	if !enabled {
		return nil, nil
	}
	lk := flock.New(path)
	ok, err := lk.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "locking %s", path)
	}
	if !ok {
		return nil, errors.Wrap(ErrLocked, path)
	}
	return lk, nil
}

func release(lk *flock.Flock) {
	if lk != nil {
		lk.Unlock()
	}
}

// BlockCount returns the number of blocks in the image.
func (d *File) BlockCount() int { return d.blocks }

// ReadBlock reads block index into buf.
func (d *File) ReadBlock(index int, buf []byte) error {
	if err := d.check(index, buf); err != nil {
		return err
	}
	if _, err := d.f.ReadAt(buf[:BlockSize], int64(index)*BlockSize); err != nil {
		return errors.Wrapf(err, "reading block %d", index)
	}
	return nil
}

// WriteBlock writes buf to block index.
func (d *File) WriteBlock(index int, buf []byte) error {
	if err := d.check(index, buf); err != nil {
		return err
	}
	if _, err := d.f.WriteAt(buf[:BlockSize], int64(index)*BlockSize); err != nil {
		return errors.Wrapf(err, "writing block %d", index)
	}
	return nil
}

func (d *File) check(index int, buf []byte) error {
	if d.f == nil {
		return ErrClosed
	}
	if index < 0 || index >= d.blocks {
		return errors.Wrapf(ErrOutOfRange, "block %d of %d", index, d.blocks)
	}
	if len(buf) < BlockSize {
		return errors.Errorf("buffer of %d bytes is smaller than a block", len(buf))
	}
	return nil
}

// Close syncs and closes the backing file and releases its lock.
func (d *File) Close() error {
	if d.f == nil {
		return ErrClosed
	}
	serr := d.f.Sync()
	cerr := d.f.Close()
	d.f = nil
	release(d.lock)
	d.lock = nil
	d.log.Debug("closed block device")
	if serr != nil {
		return errors.Wrap(serr, "syncing image")
	}
	return errors.Wrap(cerr, "closing image")
}
