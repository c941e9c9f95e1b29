package ecs

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/lvdlvd/ecsfs/disk"
)

const (
	// eoc terminates a chain in the FAT.
	eoc uint16 = 0xFFFF

	entriesPerBlock = BlockSize / 2
)

// fat is the in-memory file allocation table. entries covers every FAT
// block on disk; only the first n entries describe data blocks.
type fat struct {
	entries []uint16
	n       int
}

func newFAT(sb superblock) *fat {
	t := &fat{
		entries: make([]uint16, sb.fatBlocks*entriesPerBlock),
		n:       sb.dataBlocks,
	}
	t.entries[0] = eoc
	return t
}

func loadFAT(dev disk.Device, sb superblock, buf []byte) (*fat, error) {
	t := &fat{
		entries: make([]uint16, sb.fatBlocks*entriesPerBlock),
		n:       sb.dataBlocks,
	}
	for i := 0; i < sb.fatBlocks; i++ {
		if err := dev.ReadBlock(1+i, buf); err != nil {
			return nil, &DeviceError{Op: "read", Block: 1 + i, Err: err}
		}
		ents := t.entries[i*entriesPerBlock : (i+1)*entriesPerBlock]
		for j := range ents {
			ents[j] = binary.LittleEndian.Uint16(buf[2*j:])
		}
	}
	return t, nil
}

func (t *fat) store(dev disk.Device, sb superblock, buf []byte) error {
	for i := 0; i < sb.fatBlocks; i++ {
		ents := t.entries[i*entriesPerBlock : (i+1)*entriesPerBlock]
		for j, v := range ents {
			binary.LittleEndian.PutUint16(buf[2*j:], v)
		}
		if err := dev.WriteBlock(1+i, buf); err != nil {
			return &DeviceError{Op: "write", Block: 1 + i, Err: err}
		}
	}
	return nil
}

// valid reports whether i names an allocatable data block.
func (t *fat) valid(i uint16) bool {
	return i != 0 && int(i) < t.n
}

// allocate claims the lowest free block as a one-block chain.
func (t *fat) allocate() (uint16, error) {
	for i := 1; i < t.n; i++ {
		if t.entries[i] == 0 {
			t.entries[i] = eoc
			return uint16(i), nil
		}
	}
	return 0, ErrNoSpace
}

// extend allocates a block and links it after tail.
func (t *fat) extend(tail uint16) (uint16, error) {
	i, err := t.allocate()
	if err != nil {
		return 0, err
	}
	t.entries[tail] = i
	return i, nil
}

// next returns the block after i, or eoc.
func (t *fat) next(i uint16) (uint16, error) {
	v := t.entries[i]
	if v != eoc && !t.valid(v) {
		return 0, errors.Wrapf(ErrCorruptChain, "block %d links to %d", i, v)
	}
	return v, nil
}

// chain returns every block of the chain starting at head, in order.
// A chain longer than the data region must contain a cycle.
func (t *fat) chain(head uint16) ([]uint16, error) {
	if !t.valid(head) {
		return nil, errors.Wrapf(ErrCorruptChain, "chain head %d", head)
	}
	var blocks []uint16
	for cur := head; ; {
		blocks = append(blocks, cur)
		if len(blocks) >= t.n {
			return nil, errors.Wrapf(ErrCorruptChain, "chain from %d does not terminate", head)
		}
		nxt, err := t.next(cur)
		if err != nil {
			return nil, err
		}
		if nxt == eoc {
			return blocks, nil
		}
		cur = nxt
	}
}

// release frees every block of the chain starting at head and returns how
// many were freed. The chain is validated in full before anything is freed.
func (t *fat) release(head uint16) (int, error) {
	blocks, err := t.chain(head)
	if err != nil {
		return 0, err
	}
	for _, b := range blocks {
		t.entries[b] = 0
	}
	return len(blocks), nil
}

// free counts unallocated data blocks.
func (t *fat) free() int {
	n := 0
	for _, v := range t.entries[1:t.n] {
		if v == 0 {
			n++
		}
	}
	return n
}
