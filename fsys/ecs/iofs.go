package ecs

import (
	"io"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// IOFS returns a read-only io/fs view of the root directory. Every file
// opened through the view holds a descriptor until it is closed.
func (f *FS) IOFS() fs.FS {
	return view{fs: f}
}

type view struct {
	fs *FS
}

// pathErr maps engine errors onto the io/fs error vocabulary.
func pathErr(op, name string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidName):
		err = fs.ErrNotExist
	case errors.Is(err, ErrNotMounted):
		err = fs.ErrClosed
	}
	return &fs.PathError{Op: op, Path: name, Err: err}
}

func (v view) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		if !v.fs.mounted() {
			return nil, pathErr("open", name, ErrNotMounted)
		}
		return &ecsDir{fs: v.fs}, nil
	}
	fd, err := v.fs.Open(name)
	if err != nil {
		return nil, pathErr("open", name, err)
	}
	return &ecsFile{f: v.fs.File(fd), name: name}, nil
}

func (v view) ReadDir(name string) ([]fs.DirEntry, error) {
	file, err := v.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dir, ok := file.(fs.ReadDirFile)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	entries, err := dir.ReadDir(-1)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, err
}

func (v view) Stat(name string) (fs.FileInfo, error) {
	file, err := v.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return file.Stat()
}

// ecsFile implements fs.File for a regular file.
type ecsFile struct {
	f    *File
	name string
}

func (e *ecsFile) Stat() (fs.FileInfo, error) {
	size, err := e.f.Size()
	if err != nil {
		return nil, pathErr("stat", e.name, err)
	}
	return &ecsFileInfo{name: e.name, size: size}, nil
}

func (e *ecsFile) Read(b []byte) (int, error) {
	n, err := e.f.Read(b)
	if err != nil && err != io.EOF {
		return n, pathErr("read", e.name, err)
	}
	return n, err
}

func (e *ecsFile) Close() error {
	if err := e.f.Close(); err != nil {
		return pathErr("close", e.name, err)
	}
	return nil
}

// ecsDir implements fs.ReadDirFile for the root directory.
type ecsDir struct {
	fs      *FS
	entries []fs.DirEntry
	loaded  bool
	offset  int
}

func (d *ecsDir) Stat() (fs.FileInfo, error) {
	return &ecsFileInfo{name: ".", isDir: true}, nil
}

func (d *ecsDir) Read(b []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: ".", Err: fs.ErrInvalid}
}

func (d *ecsDir) Close() error {
	d.entries = nil
	return nil
}

// pathName reports whether a stored name can appear in an io/fs path.
func pathName(name string) bool {
	return fs.ValidPath(name) && name != "." && !strings.Contains(name, "/")
}

func (d *ecsDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.loaded {
		list, err := d.fs.List()
		if err != nil {
			return nil, pathErr("readdir", ".", err)
		}
		d.entries = make([]fs.DirEntry, 0, len(list))
		for _, e := range list {
			if !pathName(e.Name) {
				continue
			}
			d.entries = append(d.entries, &ecsDirEntry{info: ecsFileInfo{name: e.Name, size: e.Size}})
		}
		d.loaded = true
	}

	if n <= 0 {
		entries := d.entries[d.offset:]
		d.offset = len(d.entries)
		return entries, nil
	}

	if d.offset >= len(d.entries) {
		return nil, io.EOF
	}

	end := min(d.offset+n, len(d.entries))
	entries := d.entries[d.offset:end]
	d.offset = end
	return entries, nil
}

// ecsDirEntry implements fs.DirEntry
type ecsDirEntry struct {
	info ecsFileInfo
}

func (e *ecsDirEntry) Name() string               { return e.info.name }
func (e *ecsDirEntry) IsDir() bool                { return false }
func (e *ecsDirEntry) Type() fs.FileMode          { return 0 }
func (e *ecsDirEntry) Info() (fs.FileInfo, error) { return &e.info, nil }

// ecsFileInfo implements fs.FileInfo. The format keeps no timestamps.
type ecsFileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (i *ecsFileInfo) Name() string       { return i.name }
func (i *ecsFileInfo) Size() int64        { return i.size }
func (i *ecsFileInfo) ModTime() time.Time { return time.Time{} }
func (i *ecsFileInfo) IsDir() bool        { return i.isDir }
func (i *ecsFileInfo) Sys() any           { return nil }

func (i *ecsFileInfo) Mode() fs.FileMode {
	if i.isDir {
		return fs.ModeDir | 0555
	}
	return 0444
}
