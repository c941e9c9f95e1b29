package ecs

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Root directory record layout.
const (
	direntLen  = 32
	direntName = 0x00
	direntSize = 0x10
	direntHead = 0x14
	nameField  = 16
)

// blockRef is an optional reference to a data block.
type blockRef struct {
	index uint16
	ok    bool
}

// dirent is one root directory slot. A slot with an empty name is free.
type dirent struct {
	name string
	size uint32
	head blockRef
}

func (d *dirent) live() bool { return d.name != "" }

type rootDir [MaxFiles]dirent

func decodeRootDir(b []byte) *rootDir {
	var r rootDir
	for i := range r {
		rec := b[i*direntLen : (i+1)*direntLen]
		name := rec[direntName : direntName+nameField]
		if n := bytes.IndexByte(name, 0); n >= 0 {
			name = name[:n]
		}
		if len(name) == 0 {
			continue
		}
		r[i].name = string(name)
		r[i].size = binary.LittleEndian.Uint32(rec[direntSize:])
		if h := binary.LittleEndian.Uint16(rec[direntHead:]); h != eoc {
			r[i].head = blockRef{index: h, ok: true}
		}
	}
	return &r
}

// encode writes the directory in on-disk form. A file without data is
// stored with an EOC head; a free slot is stored as zeroes.
func (r *rootDir) encode(b []byte) {
	clear(b[:BlockSize])
	for i := range r {
		e := &r[i]
		if !e.live() {
			continue
		}
		rec := b[i*direntLen : (i+1)*direntLen]
		copy(rec[direntName:direntName+nameField], e.name)
		binary.LittleEndian.PutUint32(rec[direntSize:], e.size)
		head := eoc
		if e.head.ok {
			head = e.head.index
		}
		binary.LittleEndian.PutUint16(rec[direntHead:], head)
	}
}

func (r *rootDir) lookup(name string) int {
	for i := range r {
		if r[i].live() && r[i].name == name {
			return i
		}
	}
	return -1
}

func (r *rootDir) free() int {
	n := 0
	for i := range r {
		if !r[i].live() {
			n++
		}
	}
	return n
}

func validName(name string) error {
	if len(name) == 0 || len(name) > MaxNameLen {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	for i := 0; i < len(name); i++ {
		if c := name[i]; c < 0x20 || c > 0x7e {
			return errors.Wrapf(ErrInvalidName, "%q", name)
		}
	}
	return nil
}

// Entry describes a file in the root directory.
type Entry struct {
	Name string
	Size int64
	// Head is the first data block of the file, or NoBlock if the file
	// has never been written.
	Head int
}

// NoBlock is the Entry.Head of a file without data blocks.
const NoBlock = -1

func (d *dirent) entry() Entry {
	e := Entry{Name: d.name, Size: int64(d.size), Head: NoBlock}
	if d.head.ok {
		e.Head = int(d.head.index)
	}
	return e
}

// Create adds an empty file to the root directory.
func (f *FS) Create(name string) error {
	if !f.mounted() {
		return ErrNotMounted
	}
	if err := validName(name); err != nil {
		return err
	}
	if f.root.lookup(name) >= 0 {
		return errors.Wrapf(ErrNameCollision, "%q", name)
	}
	for i := range f.root {
		if !f.root[i].live() {
			f.root[i] = dirent{name: name}
			f.log.WithField("file", name).WithField("slot", i).Debug("created file")
			return nil
		}
	}
	return ErrDirectoryFull
}

// Delete removes a file and frees its data blocks. Files with open
// descriptors cannot be deleted.
func (f *FS) Delete(name string) error {
	if !f.mounted() {
		return ErrNotMounted
	}
	if err := validName(name); err != nil {
		return err
	}
	slot := f.root.lookup(name)
	if slot < 0 {
		return errors.Wrapf(ErrNotFound, "%q", name)
	}
	if f.referenced(slot) {
		return errors.Wrapf(ErrFileBusy, "%q", name)
	}

	e := &f.root[slot]
	freed := 0
	if e.head.ok {
		n, err := f.fat.release(e.head.index)
		if err != nil {
			return errors.Wrapf(err, "deleting %q", name)
		}
		freed = n
	}
	*e = dirent{}
	f.log.WithField("file", name).WithField("blocks", freed).Debug("deleted file")
	return nil
}

// List returns the live entries of the root directory in slot order.
func (f *FS) List() ([]Entry, error) {
	if !f.mounted() {
		return nil, ErrNotMounted
	}
	entries := []Entry{}
	for i := range f.root {
		if f.root[i].live() {
			entries = append(entries, f.root[i].entry())
		}
	}
	return entries, nil
}
