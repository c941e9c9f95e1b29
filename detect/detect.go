// Package detect identifies the format of a disk image from its first block.
package detect

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Type represents an image format
type Type int

const (
	Unknown Type = iota
	ECS150
	FAT12
	FAT16
	FAT32
	NTFS
	Ext
	GPT
)

func (t Type) String() string {
	switch t {
	case ECS150:
		return "ECS150FS"
	case FAT12:
		return "FAT12"
	case FAT16:
		return "FAT16"
	case FAT32:
		return "FAT32"
	case NTFS:
		return "NTFS"
	case Ext:
		return "ext2/3/4"
	case GPT:
		return "GPT"
	default:
		return "unknown"
	}
}

// IsFAT returns true if the type is any FAT variant
func (t Type) IsFAT() bool {
	return t == FAT12 || t == FAT16 || t == FAT32
}

// headerSize covers every magic number checked below.
const headerSize = 4096

// Detect identifies the image format from a reader.
func Detect(r io.ReaderAt) (Type, error) {
	header := make([]byte, headerSize)
	n, err := r.ReadAt(header, 0)
	if err != nil && err != io.EOF {
		return Unknown, errors.Wrap(err, "reading header")
	}
	header = header[:n]
	if n < 512 {
		return Unknown, errors.Errorf("image too small: %d bytes", n)
	}

	switch {
	case bytes.HasPrefix(header, []byte("ECS150FS")):
		return ECS150, nil
	case n >= 520 && bytes.Equal(header[512:520], []byte("EFI PART")):
		return GPT, nil
	case bytes.Equal(header[3:11], []byte("NTFS    ")):
		return NTFS, nil
	case n >= 0x43A && binary.LittleEndian.Uint16(header[0x438:]) == 0xEF53:
		return Ext, nil
	case header[510] == 0x55 && header[511] == 0xAA:
		return fatVersion(header), nil
	}
	return Unknown, nil
}

// fatVersion distinguishes FAT12, FAT16 and FAT32 by the label in the boot
// sector, falling back to the cluster count computed from the BPB.
func fatVersion(h []byte) Type {
	switch {
	case bytes.Equal(h[82:90], []byte("FAT32   ")):
		return FAT32
	case bytes.Equal(h[54:62], []byte("FAT12   ")):
		return FAT12
	case bytes.Equal(h[54:62], []byte("FAT16   ")):
		return FAT16
	}

	bytesPerSector := uint32(binary.LittleEndian.Uint16(h[11:13]))
	sectorsPerCluster := uint32(h[13])
	reserved := uint32(binary.LittleEndian.Uint16(h[14:16]))
	numFATs := uint32(h[16])
	rootEntries := uint32(binary.LittleEndian.Uint16(h[17:19]))
	if bytesPerSector == 0 || sectorsPerCluster == 0 {
		return Unknown
	}

	total := uint32(binary.LittleEndian.Uint16(h[19:21]))
	if total == 0 {
		total = binary.LittleEndian.Uint32(h[32:36])
	}
	fatSize := uint32(binary.LittleEndian.Uint16(h[22:24]))
	if fatSize == 0 {
		fatSize = binary.LittleEndian.Uint32(h[36:40])
	}

	rootSectors := (rootEntries*32 + bytesPerSector - 1) / bytesPerSector
	meta := reserved + numFATs*fatSize + rootSectors
	if meta >= total {
		return Unknown
	}
	switch clusters := (total - meta) / sectorsPerCluster; {
	case clusters < 4085:
		return FAT12
	case clusters < 65525:
		return FAT16
	}
	return FAT32
}
