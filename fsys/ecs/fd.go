package ecs

import "github.com/pkg/errors"

// FD is an open file descriptor: an index into the descriptor table.
type FD int

// descriptor binds a root directory slot and a byte cursor. It remembers
// the last chain position it resolved so sequential I/O does not walk the
// chain from its head on every call; chains only grow while a file is
// open, so the remembered block stays valid.
type descriptor struct {
	used   bool
	slot   int
	offset int64

	hinted    bool
	hintPos   int
	hintBlock uint16
}

// Open opens a file and returns a descriptor positioned at offset 0.
func (f *FS) Open(name string) (FD, error) {
	if !f.mounted() {
		return -1, ErrNotMounted
	}
	if err := validName(name); err != nil {
		return -1, err
	}
	slot := f.root.lookup(name)
	if slot < 0 {
		return -1, errors.Wrapf(ErrNotFound, "%q", name)
	}
	for i := range f.fds {
		if !f.fds[i].used {
			f.fds[i] = descriptor{used: true, slot: slot}
			return FD(i), nil
		}
	}
	return -1, ErrTooManyOpen
}

// Close releases a descriptor.
func (f *FS) Close(fd FD) error {
	if _, _, err := f.descriptor(fd); err != nil {
		return err
	}
	f.fds[fd] = descriptor{}
	return nil
}

// Stat returns the current size of the file behind fd.
func (f *FS) Stat(fd FD) (int64, error) {
	_, e, err := f.descriptor(fd)
	if err != nil {
		return 0, err
	}
	return int64(e.size), nil
}

// Seek moves the cursor of fd to offset, which may equal but not exceed
// the file size.
func (f *FS) Seek(fd FD, offset int64) error {
	d, e, err := f.descriptor(fd)
	if err != nil {
		return err
	}
	if offset < 0 || offset > int64(e.size) {
		return errors.Wrapf(ErrInvalidOffset, "offset %d, size %d", offset, e.size)
	}
	d.offset = offset
	return nil
}

// Tell returns the cursor position of fd.
func (f *FS) Tell(fd FD) (int64, error) {
	d, _, err := f.descriptor(fd)
	if err != nil {
		return 0, err
	}
	return d.offset, nil
}

func (f *FS) descriptor(fd FD) (*descriptor, *dirent, error) {
	if !f.mounted() {
		return nil, nil, ErrNotMounted
	}
	if fd < 0 || int(fd) >= len(f.fds) || !f.fds[fd].used {
		return nil, nil, errors.Wrapf(ErrInvalidHandle, "descriptor %d", fd)
	}
	d := &f.fds[fd]
	return d, &f.root[d.slot], nil
}

// referenced reports whether any descriptor is bound to slot.
func (f *FS) referenced(slot int) bool {
	for i := range f.fds {
		if f.fds[i].used && f.fds[i].slot == slot {
			return true
		}
	}
	return false
}

func (f *FS) openCount() int {
	n := 0
	for i := range f.fds {
		if f.fds[i].used {
			n++
		}
	}
	return n
}
