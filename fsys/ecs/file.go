package ecs

import (
	"io"

	"github.com/pkg/errors"
)

// File adapts a descriptor to the io interfaces.
type File struct {
	fs *FS
	fd FD
}

// File wraps an open descriptor.
func (f *FS) File(fd FD) *File {
	return &File{fs: f, fd: fd}
}

// OpenFile opens name and wraps the descriptor.
func (f *FS) OpenFile(name string) (*File, error) {
	fd, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	return f.File(fd), nil
}

// FD returns the underlying descriptor.
func (f *File) FD() FD { return f.fd }

// Read implements io.Reader.
func (f *File) Read(p []byte) (int, error) {
	n, err := f.fs.Read(f.fd, p)
	if err == nil && n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, err
}

// Write implements io.Writer. Running out of data blocks is reported as
// io.ErrShortWrite.
func (f *File) Write(p []byte) (int, error) {
	n, err := f.fs.Write(f.fd, p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// Seek implements io.Seeker. The resulting offset must lie within the file.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		cur, err := f.fs.Tell(f.fd)
		if err != nil {
			return 0, err
		}
		base = cur
	case io.SeekEnd:
		size, err := f.fs.Stat(f.fd)
		if err != nil {
			return 0, err
		}
		base = size
	default:
		return 0, errors.Errorf("ecs: invalid whence %d", whence)
	}
	if err := f.fs.Seek(f.fd, base+offset); err != nil {
		return 0, err
	}
	return base + offset, nil
}

// Size returns the current file size.
func (f *File) Size() (int64, error) {
	return f.fs.Stat(f.fd)
}

// Close releases the descriptor.
func (f *File) Close() error {
	return f.fs.Close(f.fd)
}
