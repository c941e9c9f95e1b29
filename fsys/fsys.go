// Package fsys holds the types shared by filesystem implementations and the
// commands that report on them.
package fsys

// Range represents a byte range [Start, End) where Start is inclusive
// and End is exclusive (one past the last byte).
type Range struct {
	Start int64 // First byte of the range (inclusive)
	End   int64 // One past the last byte (exclusive)
}

// Size returns the size of the range in bytes
func (r Range) Size() int64 {
	return r.End - r.Start
}

// Extent represents a mapping from logical file offset to physical image offset
type Extent struct {
	Logical  int64 // Offset within the file
	Physical int64 // Offset within the image
	Length   int64 // Length of this extent
}

// FreeBlocker is an optional interface for filesystems that can report free space
type FreeBlocker interface {
	// FreeBlocks returns a list of free byte ranges in the filesystem image.
	// Ranges are returned in ascending order and do not overlap.
	FreeBlocks() ([]Range, error)
}

// ExtentMapper is an optional interface for filesystems that can report
// the physical location of file data within the image
type ExtentMapper interface {
	// FileExtents returns the list of extents that map a file's logical
	// offsets to physical offsets in the image.
	FileExtents(name string) ([]Extent, error)
}

// AppendExtent adds a piece of file data to exts, growing the last extent
// when the new piece continues it both logically and physically.
func AppendExtent(exts []Extent, e Extent) []Extent {
	if n := len(exts); n > 0 {
		last := &exts[n-1]
		if last.Logical+last.Length == e.Logical && last.Physical+last.Length == e.Physical {
			last.Length += e.Length
			return exts
		}
	}
	return append(exts, e)
}

// AppendRange adds r to rs, merging it into the last range when they touch.
func AppendRange(rs []Range, r Range) []Range {
	if n := len(rs); n > 0 && rs[n-1].End == r.Start {
		rs[n-1].End = r.End
		return rs
	}
	return append(rs, r)
}

// TotalSize sums the sizes of rs.
func TotalSize(rs []Range) int64 {
	var total int64
	for _, r := range rs {
		total += r.Size()
	}
	return total
}
