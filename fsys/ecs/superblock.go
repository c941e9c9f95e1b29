package ecs

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/lvdlvd/ecsfs/disk"
)

// Superblock field offsets within block 0.
const (
	sbSignature  = 0x00
	sbTotal      = 0x08
	sbRootDir    = 0x0A
	sbDataStart  = 0x0C
	sbDataBlocks = 0x0E
	sbFATBlocks  = 0x10
)

// superblock is the decoded layout header.
type superblock struct {
	totalBlocks int
	rootDir     int
	dataStart   int
	dataBlocks  int
	fatBlocks   int
}

// fatBlocksFor returns the number of blocks needed to hold one 16-bit FAT
// entry per data block.
func fatBlocksFor(dataBlocks int) int {
	return (dataBlocks*2 + BlockSize - 1) / BlockSize
}

func newSuperblock(dataBlocks int) superblock {
	fat := fatBlocksFor(dataBlocks)
	return superblock{
		totalBlocks: 1 + fat + 1 + dataBlocks,
		rootDir:     1 + fat,
		dataStart:   2 + fat,
		dataBlocks:  dataBlocks,
		fatBlocks:   fat,
	}
}

func decodeSuperblock(b []byte) (superblock, error) {
	if string(b[sbSignature:sbSignature+len(Signature)]) != Signature {
		return superblock{}, ErrInvalidSignature
	}
	return superblock{
		totalBlocks: int(binary.LittleEndian.Uint16(b[sbTotal:])),
		rootDir:     int(binary.LittleEndian.Uint16(b[sbRootDir:])),
		dataStart:   int(binary.LittleEndian.Uint16(b[sbDataStart:])),
		dataBlocks:  int(binary.LittleEndian.Uint16(b[sbDataBlocks:])),
		fatBlocks:   int(b[sbFATBlocks]),
	}, nil
}

func (sb superblock) encode(b []byte) {
	clear(b[:BlockSize])
	copy(b[sbSignature:], Signature)
	binary.LittleEndian.PutUint16(b[sbTotal:], uint16(sb.totalBlocks))
	binary.LittleEndian.PutUint16(b[sbRootDir:], uint16(sb.rootDir))
	binary.LittleEndian.PutUint16(b[sbDataStart:], uint16(sb.dataStart))
	binary.LittleEndian.PutUint16(b[sbDataBlocks:], uint16(sb.dataBlocks))
	b[sbFATBlocks] = uint8(sb.fatBlocks)
}

// validate checks the header against itself and the device it came from.
func (sb superblock) validate(deviceBlocks int) error {
	switch {
	case sb.dataBlocks < 1 || sb.dataBlocks > MaxDataBlocks:
		return errors.Wrapf(ErrInvalidLayout, "data block count %d", sb.dataBlocks)
	case sb.fatBlocks < fatBlocksFor(sb.dataBlocks):
		return errors.Wrapf(ErrInvalidLayout, "%d FAT blocks cannot map %d data blocks", sb.fatBlocks, sb.dataBlocks)
	case sb.rootDir != 1+sb.fatBlocks:
		return errors.Wrapf(ErrInvalidLayout, "root directory at block %d, want %d", sb.rootDir, 1+sb.fatBlocks)
	case sb.dataStart != sb.rootDir+1:
		return errors.Wrapf(ErrInvalidLayout, "data region at block %d, want %d", sb.dataStart, sb.rootDir+1)
	case sb.totalBlocks != sb.dataStart+sb.dataBlocks:
		return errors.Wrapf(ErrInvalidLayout, "total block count %d, want %d", sb.totalBlocks, sb.dataStart+sb.dataBlocks)
	case sb.totalBlocks != deviceBlocks:
		return errors.Wrapf(ErrInvalidLayout, "superblock says %d blocks, device has %d", sb.totalBlocks, deviceBlocks)
	}
	return nil
}

// Format writes an empty filesystem with dataBlocks data blocks to dev.
// The device must be exactly as large as the layout requires.
func Format(dev disk.Device, dataBlocks int) error {
	if dataBlocks < 1 || dataBlocks > MaxDataBlocks {
		return errors.Errorf("ecs: data block count %d not in [1, %d]", dataBlocks, MaxDataBlocks)
	}
	sb := newSuperblock(dataBlocks)
	if n := dev.BlockCount(); n != sb.totalBlocks {
		return errors.Wrapf(ErrInvalidLayout, "device has %d blocks, layout needs %d", n, sb.totalBlocks)
	}

	buf := make([]byte, BlockSize)
	sb.encode(buf)
	if err := dev.WriteBlock(0, buf); err != nil {
		return &DeviceError{Op: "write", Block: 0, Err: err}
	}

	t := newFAT(sb)
	if err := t.store(dev, sb, buf); err != nil {
		return err
	}

	clear(buf)
	if err := dev.WriteBlock(sb.rootDir, buf); err != nil {
		return &DeviceError{Op: "write", Block: sb.rootDir, Err: err}
	}
	return nil
}

// FormatFile creates an image file at path holding an empty filesystem.
func FormatFile(path string, dataBlocks int, opts ...disk.Option) error {
	if dataBlocks < 1 || dataBlocks > MaxDataBlocks {
		return errors.Errorf("ecs: data block count %d not in [1, %d]", dataBlocks, MaxDataBlocks)
	}
	dev, err := disk.Create(path, newSuperblock(dataBlocks).totalBlocks, opts...)
	if err != nil {
		return err
	}
	if err := Format(dev, dataBlocks); err != nil {
		dev.Close()
		return err
	}
	return dev.Close()
}
