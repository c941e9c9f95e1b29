package ecs

import (
	"github.com/pkg/errors"
)

// locate returns the data block at chain position pos of the file bound to
// d. When grow is set a chain that ends early is extended one block at a
// time; otherwise an early end means the chain is shorter than the file.
func (f *FS) locate(d *descriptor, e *dirent, pos int, grow bool) (uint16, error) {
	cur, at := e.head.index, 0
	if d.hinted && d.hintPos <= pos {
		cur, at = d.hintBlock, d.hintPos
	}
	if !f.fat.valid(cur) {
		return 0, errors.Wrapf(ErrCorruptChain, "%q: block %d", e.name, cur)
	}
	for at < pos {
		nxt, err := f.fat.next(cur)
		if err != nil {
			return 0, errors.Wrapf(err, "%q", e.name)
		}
		if nxt == eoc {
			if !grow {
				return 0, errors.Wrapf(ErrCorruptChain, "%q: chain ends at block %d of %d", e.name, at, pos)
			}
			if nxt, err = f.fat.extend(cur); err != nil {
				return 0, err
			}
			f.log.WithField("file", e.name).WithField("block", nxt).Debug("extended chain")
		}
		cur = nxt
		at++
	}
	d.hinted, d.hintPos, d.hintBlock = true, pos, cur
	return cur, nil
}

func (f *FS) readData(blk uint16) error {
	i := f.sb.dataStart + int(blk)
	if err := f.dev.ReadBlock(i, f.buf[:]); err != nil {
		return &DeviceError{Op: "read", Block: i, Err: err}
	}
	return nil
}

func (f *FS) writeData(blk uint16) error {
	i := f.sb.dataStart + int(blk)
	if err := f.dev.WriteBlock(i, f.buf[:]); err != nil {
		return &DeviceError{Op: "write", Block: i, Err: err}
	}
	return nil
}

// Write copies p into the file at the cursor of fd, allocating blocks as
// the file grows, and advances the cursor. If the data region fills up the
// write stops early and the number of bytes stored is returned without an
// error. A device error also stops the write; bytes stored before it are
// still accounted for in the file size and cursor.
func (f *FS) Write(fd FD, p []byte) (int, error) {
	d, e, err := f.descriptor(fd)
	if err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	if !e.head.ok {
		i, err := f.fat.allocate()
		if err != nil {
			f.log.WithField("file", e.name).Warn("no free blocks, nothing written")
			return 0, nil
		}
		e.head = blockRef{index: i, ok: true}
		f.log.WithField("file", e.name).WithField("block", i).Debug("allocated chain head")
	}

	start := d.offset
	written := 0
	var werr error
	for written < len(p) {
		off := start + int64(written)
		blk, err := f.locate(d, e, int(off/BlockSize), true)
		if errors.Is(err, ErrNoSpace) {
			f.log.WithField("file", e.name).WithField("written", written).WithField("requested", len(p)).
				Warn("no free blocks, short write")
			break
		}
		if err != nil {
			werr = err
			break
		}

		in := int(off % BlockSize)
		n := min(BlockSize-in, len(p)-written)
		if n < BlockSize {
			if err := f.readData(blk); err != nil {
				werr = err
				break
			}
		}
		copy(f.buf[in:], p[written:written+n])
		if err := f.writeData(blk); err != nil {
			werr = err
			break
		}
		written += n
	}

	d.offset = start + int64(written)
	if d.offset > int64(e.size) {
		e.size = uint32(d.offset)
	}
	return written, werr
}

// Read copies up to len(p) bytes from the cursor of fd into p and advances
// the cursor. Reading at or past the end of the file returns 0 and no error.
func (f *FS) Read(fd FD, p []byte) (int, error) {
	d, e, err := f.descriptor(fd)
	if err != nil {
		return 0, err
	}
	avail := int64(e.size) - d.offset
	if avail <= 0 || len(p) == 0 {
		return 0, nil
	}
	if !e.head.ok {
		return 0, errors.Wrapf(ErrCorruptChain, "%q: %d bytes but no data blocks", e.name, e.size)
	}

	want := int(min(int64(len(p)), avail))
	read := 0
	for read < want {
		blk, err := f.locate(d, e, int(d.offset/BlockSize), false)
		if err != nil {
			return read, err
		}
		if err := f.readData(blk); err != nil {
			return read, err
		}
		in := int(d.offset % BlockSize)
		n := copy(p[read:want], f.buf[in:])
		read += n
		d.offset += int64(n)
	}
	return read, nil
}
