package ecs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvdlvd/ecsfs/disk"
)

// newMemFS formats an in-memory device with dataBlocks data blocks and
// mounts it.
func newMemFS(t *testing.T, dataBlocks int) (*FS, *disk.Memory) {
	t.Helper()
	m := disk.NewMemory(newSuperblock(dataBlocks).totalBlocks)
	require.NoError(t, Format(m, dataBlocks))
	f, err := Mount(m)
	require.NoError(t, err)
	return f, m
}

func remount(t *testing.T, f *FS, m *disk.Memory) *FS {
	t.Helper()
	require.NoError(t, f.Unmount())
	m.Reopen()
	f, err := Mount(m)
	require.NoError(t, err)
	return f
}

func data(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i*7)
	}
	return b
}

func writeFile(t *testing.T, f *FS, name string, p []byte) {
	t.Helper()
	require.NoError(t, f.Create(name))
	fd, err := f.Open(name)
	require.NoError(t, err)
	n, err := f.Write(fd, p)
	require.NoError(t, err)
	require.Equal(t, len(p), n)
	require.NoError(t, f.Close(fd))
}

func readFile(t *testing.T, f *FS, name string) []byte {
	t.Helper()
	fd, err := f.Open(name)
	require.NoError(t, err)
	defer f.Close(fd)
	size, err := f.Stat(fd)
	require.NoError(t, err)
	buf := make([]byte, size)
	n, err := f.Read(fd, buf)
	require.NoError(t, err)
	require.EqualValues(t, size, n)
	return buf
}

func TestMountInvalidSignature(t *testing.T) {
	m := disk.NewMemory(newSuperblock(10).totalBlocks)
	require.NoError(t, Format(m, 10))
	copy(m.Bytes(), "ECS150FX")

	f, err := Mount(m)
	assert.Nil(t, f)
	assert.True(t, errors.Is(err, ErrInvalidSignature), "got %v", err)

	// A blank device carries no signature either.
	_, err = Mount(disk.NewMemory(4))
	assert.True(t, errors.Is(err, ErrInvalidSignature), "got %v", err)
}

func TestMountInvalidLayout(t *testing.T) {
	tests := []struct {
		name  string
		patch func(b []byte)
	}{
		{"total", func(b []byte) { binary.LittleEndian.PutUint16(b[sbTotal:], 99) }},
		{"root dir", func(b []byte) { binary.LittleEndian.PutUint16(b[sbRootDir:], 5) }},
		{"data start", func(b []byte) { binary.LittleEndian.PutUint16(b[sbDataStart:], 1) }},
		{"fat blocks", func(b []byte) { b[sbFATBlocks] = 0 }},
		{"data blocks", func(b []byte) { binary.LittleEndian.PutUint16(b[sbDataBlocks:], 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := disk.NewMemory(newSuperblock(10).totalBlocks)
			require.NoError(t, Format(m, 10))
			tt.patch(m.Bytes())
			_, err := Mount(m)
			assert.True(t, errors.Is(err, ErrInvalidLayout), "got %v", err)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Error(t, Format(disk.NewMemory(3), 0))
	assert.Error(t, Format(disk.NewMemory(3), MaxDataBlocks+1))
	assert.True(t, errors.Is(Format(disk.NewMemory(3), 10), ErrInvalidLayout))

	m := disk.NewMemory(newSuperblock(MaxDataBlocks).totalBlocks)
	require.NoError(t, Format(m, MaxDataBlocks))
	f, err := Mount(m)
	require.NoError(t, err)
	info, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, 4, info.FATBlocks)
	assert.Equal(t, MaxDataBlocks+6, info.TotalBlocks)
}

func TestInfo(t *testing.T) {
	f, _ := newMemFS(t, 100)
	info, err := f.Info()
	require.NoError(t, err)
	want := Info{
		TotalBlocks:    103,
		FATBlocks:      1,
		RootDirBlock:   2,
		DataStart:      3,
		DataBlocks:     100,
		FreeDataBlocks: 99,
		FreeFiles:      MaxFiles,
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("Info() mismatch (-want +got):\n%s", diff)
	}
}

func TestLifecycle(t *testing.T) {
	names := []string{"a", "hello.txt", "exactly15bytes!", "with space", "~"}
	f, _ := newMemFS(t, 10)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, f.Create(name))
			fd, err := f.Open(name)
			require.NoError(t, err)
			require.NoError(t, f.Close(fd))
			require.NoError(t, f.Delete(name))
			assert.True(t, errors.Is(f.Delete(name), ErrNotFound))
		})
	}
}

func TestCreateErrors(t *testing.T) {
	f, _ := newMemFS(t, 10)
	require.NoError(t, f.Create("taken"))

	tests := []struct {
		name string
		want error
	}{
		{"", ErrInvalidName},
		{"sixteen-bytes-xx", ErrInvalidName},
		{"tab\there", ErrInvalidName},
		{"nul\x00", ErrInvalidName},
		{"taken", ErrNameCollision},
	}
	for _, tt := range tests {
		err := f.Create(tt.name)
		assert.True(t, errors.Is(err, tt.want), "Create(%q) = %v, want %v", tt.name, err, tt.want)
	}

	entries, err := f.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDirectoryFull(t *testing.T) {
	f, _ := newMemFS(t, 10)
	for i := 0; i < MaxFiles; i++ {
		require.NoError(t, f.Create(string(rune('A'+i/26))+string(rune('a'+i%26))))
	}
	assert.True(t, errors.Is(f.Create("overflow"), ErrDirectoryFull))

	info, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, 0, info.FreeFiles)

	require.NoError(t, f.Delete("Ab"))
	require.NoError(t, f.Create("overflow"))

	// The freed slot is reused, so slot order puts the new file second.
	entries, err := f.List()
	require.NoError(t, err)
	assert.Equal(t, "overflow", entries[1].Name)
}

func TestList(t *testing.T) {
	f, _ := newMemFS(t, 10)

	entries, err := f.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	writeFile(t, f, "one", data(10, 1))
	require.NoError(t, f.Create("two"))
	writeFile(t, f, "three", data(5000, 3))

	entries, err = f.List()
	require.NoError(t, err)
	want := []Entry{
		{Name: "one", Size: 10, Head: 1},
		{Name: "two", Size: 0, Head: NoBlock},
		{Name: "three", Size: 5000, Head: 2},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, size := range []int{1, 10, BlockSize - 1, BlockSize, BlockSize + 1, 10000, 5 * BlockSize} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			f, m := newMemFS(t, 20)
			want := data(size, byte(size))
			writeFile(t, f, "file", want)
			assert.True(t, bytes.Equal(want, readFile(t, f, "file")), "size %d", size)

			f = remount(t, f, m)
			assert.True(t, bytes.Equal(want, readFile(t, f, "file")), "size %d after remount", size)
		})
	}
}

func TestStatSeekEOF(t *testing.T) {
	const size = 10000
	f, _ := newMemFS(t, 10)
	writeFile(t, f, "f", data(size, 0))

	fd, err := f.Open("f")
	require.NoError(t, err)
	got, err := f.Stat(fd)
	require.NoError(t, err)
	assert.EqualValues(t, size, got)

	require.NoError(t, f.Seek(fd, size))
	n, err := f.Read(fd, make([]byte, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.True(t, errors.Is(f.Seek(fd, size+1), ErrInvalidOffset))
	assert.True(t, errors.Is(f.Seek(fd, -1), ErrInvalidOffset))
	pos, err := f.Tell(fd)
	require.NoError(t, err)
	assert.EqualValues(t, size, pos)
}

func TestSequentialRead(t *testing.T) {
	want := data(10000, 9)
	f, _ := newMemFS(t, 10)
	writeFile(t, f, "f", want)

	fd, err := f.Open("f")
	require.NoError(t, err)
	var got []byte
	buf := make([]byte, 999)
	for {
		n, err := f.Read(fd, buf)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		got = append(got, buf[:n]...)
	}
	assert.True(t, bytes.Equal(want, got))

	pos, err := f.Tell(fd)
	require.NoError(t, err)
	assert.EqualValues(t, len(want), pos)

	// Seeking backwards drops below the remembered chain position.
	require.NoError(t, f.Seek(fd, 100))
	n, err := f.Read(fd, buf[:10])
	require.NoError(t, err)
	assert.Equal(t, want[100:110], buf[:n])
}

func TestSequentialWrite(t *testing.T) {
	want := data(3*BlockSize+77, 4)
	f, _ := newMemFS(t, 10)
	require.NoError(t, f.Create("f"))
	fd, err := f.Open("f")
	require.NoError(t, err)
	for p := want; len(p) > 0; {
		n, err := f.Write(fd, p[:min(len(p), 1000)])
		require.NoError(t, err)
		p = p[n:]
	}
	require.NoError(t, f.Close(fd))

	assert.True(t, bytes.Equal(want, readFile(t, f, "f")))
	exts, err := f.FileExtents("f")
	require.NoError(t, err)
	assert.Len(t, exts, 1, "sequential blocks should be contiguous")
}

func TestOverwrite(t *testing.T) {
	want := data(10000, 1)
	f, _ := newMemFS(t, 10)
	writeFile(t, f, "f", want)

	patch := bytes.Repeat([]byte{0xAB}, 200)
	fd, err := f.Open("f")
	require.NoError(t, err)
	require.NoError(t, f.Seek(fd, 4000))
	n, err := f.Write(fd, patch)
	require.NoError(t, err)
	require.Equal(t, len(patch), n)
	size, err := f.Stat(fd)
	require.NoError(t, err)
	assert.EqualValues(t, len(want), size, "overwrite must not change size")
	require.NoError(t, f.Close(fd))

	copy(want[4000:], patch)
	assert.True(t, bytes.Equal(want, readFile(t, f, "f")))

	info, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, 9-3, info.FreeDataBlocks)
}

func TestAppend(t *testing.T) {
	f, _ := newMemFS(t, 10)
	first, second := data(BlockSize, 1), data(10, 2)
	writeFile(t, f, "f", first)

	fd, err := f.Open("f")
	require.NoError(t, err)
	require.NoError(t, f.Seek(fd, BlockSize))
	n, err := f.Write(fd, second)
	require.NoError(t, err)
	require.Equal(t, len(second), n)

	// Extending past the end keeps the earlier part.
	require.NoError(t, f.Seek(fd, BlockSize-5))
	n, err = f.Write(fd, data(20, 3))
	require.NoError(t, err)
	require.Equal(t, 20, n)
	require.NoError(t, f.Close(fd))

	want := append(append([]byte{}, first...), second...)
	want = append(want[:BlockSize-5], data(20, 3)...)
	got := readFile(t, f, "f")
	assert.Len(t, got, BlockSize+15)
	assert.True(t, bytes.Equal(want, got))
}

func TestWriteZero(t *testing.T) {
	f, _ := newMemFS(t, 10)
	require.NoError(t, f.Create("f"))
	fd, err := f.Open("f")
	require.NoError(t, err)

	n, err := f.Write(fd, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	entries, err := f.List()
	require.NoError(t, err)
	assert.Equal(t, NoBlock, entries[0].Head, "empty write must not allocate")
}

func TestDeleteFreesBlocks(t *testing.T) {
	f, _ := newMemFS(t, 10)
	writeFile(t, f, "small", data(10, 0))
	writeFile(t, f, "big", data(10000, 0))
	require.NoError(t, f.Create("empty"))

	before, err := f.Info()
	require.NoError(t, err)
	require.NoError(t, f.Delete("big"))
	after, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, before.FreeDataBlocks+3, after.FreeDataBlocks)
	assert.Equal(t, before.FreeFiles+1, after.FreeFiles)

	require.NoError(t, f.Delete("empty"))
	again, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, after.FreeDataBlocks, again.FreeDataBlocks)
}

func TestShortWrite(t *testing.T) {
	// Four data blocks, one of which is reserved.
	f, m := newMemFS(t, 4)
	require.NoError(t, f.Create("f"))
	fd, err := f.Open("f")
	require.NoError(t, err)

	p := data(20000, 5)
	n, err := f.Write(fd, p)
	require.NoError(t, err)
	assert.Equal(t, 3*BlockSize, n)

	size, err := f.Stat(fd)
	require.NoError(t, err)
	assert.EqualValues(t, n, size)
	pos, err := f.Tell(fd)
	require.NoError(t, err)
	assert.EqualValues(t, n, pos)

	n, err = f.Write(fd, p)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	info, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, 0, info.FreeDataBlocks)

	// No space at all for a second file's first block.
	require.NoError(t, f.Create("g"))
	gd, err := f.Open("g")
	require.NoError(t, err)
	n, err = f.Write(gd, p[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.NoError(t, f.Close(gd))
	require.NoError(t, f.Close(fd))

	f = remount(t, f, m)
	assert.True(t, bytes.Equal(p[:3*BlockSize], readFile(t, f, "f")))
}

func TestDescriptors(t *testing.T) {
	f, _ := newMemFS(t, 10)
	writeFile(t, f, "f", data(100, 0))

	var fds []FD
	for i := 0; i < MaxOpen; i++ {
		fd, err := f.Open("f")
		require.NoError(t, err)
		fds = append(fds, fd)
	}
	_, err := f.Open("f")
	assert.True(t, errors.Is(err, ErrTooManyOpen))

	require.NoError(t, f.Close(fds[7]))
	fd, err := f.Open("f")
	require.NoError(t, err)
	assert.Equal(t, fds[7], fd)

	// Cursors are independent.
	require.NoError(t, f.Seek(fds[0], 50))
	buf := make([]byte, 10)
	_, err = f.Read(fds[1], buf)
	require.NoError(t, err)
	pos, err := f.Tell(fds[0])
	require.NoError(t, err)
	assert.EqualValues(t, 50, pos)

	_, err = f.Open("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = f.Open("")
	assert.True(t, errors.Is(err, ErrInvalidName))
}

func TestInvalidHandle(t *testing.T) {
	f, _ := newMemFS(t, 10)
	writeFile(t, f, "f", nil)

	for _, fd := range []FD{-1, 0, MaxOpen, 1000} {
		assert.True(t, errors.Is(f.Close(fd), ErrInvalidHandle), "Close(%d)", fd)
		_, err := f.Stat(fd)
		assert.True(t, errors.Is(err, ErrInvalidHandle), "Stat(%d)", fd)
		assert.True(t, errors.Is(f.Seek(fd, 0), ErrInvalidHandle), "Seek(%d)", fd)
		_, err = f.Read(fd, make([]byte, 1))
		assert.True(t, errors.Is(err, ErrInvalidHandle), "Read(%d)", fd)
		_, err = f.Write(fd, []byte{1})
		assert.True(t, errors.Is(err, ErrInvalidHandle), "Write(%d)", fd)
	}

	fd, err := f.Open("f")
	require.NoError(t, err)
	require.NoError(t, f.Close(fd))
	assert.True(t, errors.Is(f.Close(fd), ErrInvalidHandle))
}

func TestBusy(t *testing.T) {
	f, _ := newMemFS(t, 10)
	writeFile(t, f, "f", data(10, 0))

	a, err := f.Open("f")
	require.NoError(t, err)
	b, err := f.Open("f")
	require.NoError(t, err)

	assert.True(t, errors.Is(f.Delete("f"), ErrFileBusy))
	assert.True(t, errors.Is(f.Unmount(), ErrFileBusy))

	require.NoError(t, f.Close(a))
	assert.True(t, errors.Is(f.Delete("f"), ErrFileBusy))
	assert.True(t, errors.Is(f.Unmount(), ErrFileBusy))

	require.NoError(t, f.Close(b))
	require.NoError(t, f.Unmount())

	_, err = f.Info()
	assert.True(t, errors.Is(err, ErrNotMounted))
	assert.True(t, errors.Is(f.Unmount(), ErrNotMounted))
}

func TestNotMounted(t *testing.T) {
	var f FS
	_, err := f.Info()
	assert.Equal(t, ErrNotMounted, err)
	assert.Equal(t, ErrNotMounted, f.Create("x"))
	assert.Equal(t, ErrNotMounted, f.Delete("x"))
	_, err = f.List()
	assert.Equal(t, ErrNotMounted, err)
	_, err = f.Open("x")
	assert.Equal(t, ErrNotMounted, err)
	assert.Equal(t, ErrNotMounted, f.Close(0))
	_, err = f.Read(0, nil)
	assert.Equal(t, ErrNotMounted, err)
	_, err = f.Write(0, nil)
	assert.Equal(t, ErrNotMounted, err)
	assert.Equal(t, ErrNotMounted, f.Sync())
}

func TestCorruptChain(t *testing.T) {
	tests := []struct {
		name  string
		patch func(t *fat)
	}{
		{"cycle", func(t *fat) { t.entries[3] = 1 }},
		{"self link", func(t *fat) { t.entries[2] = 2 }},
		{"freed link", func(t *fat) { t.entries[2] = 0 }},
		{"out of range", func(t *fat) { t.entries[1] = 500 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newMemFS(t, 10)
			writeFile(t, f, "f", data(3*BlockSize, 0))
			tt.patch(f.fat)
			before := append([]uint16(nil), f.fat.entries...)

			err := f.Delete("f")
			assert.True(t, errors.Is(err, ErrCorruptChain), "got %v", err)
			assert.Equal(t, before, f.fat.entries, "FAT changed by failed delete")
			_, err = f.Open("f")
			assert.NoError(t, err, "entry removed by failed delete")
		})
	}
}

func TestCorruptSize(t *testing.T) {
	f, _ := newMemFS(t, 10)
	writeFile(t, f, "f", data(100, 0))
	f.root[0].size = 3 * BlockSize

	fd, err := f.Open("f")
	require.NoError(t, err)
	buf := make([]byte, 3*BlockSize)
	n, err := f.Read(fd, buf)
	assert.True(t, errors.Is(err, ErrCorruptChain), "got %v", err)
	assert.Equal(t, BlockSize, n)

	require.NoError(t, f.Create("g"))
	f.root[1].size = 10
	gd, err := f.Open("g")
	require.NoError(t, err)
	_, err = f.Read(gd, buf)
	assert.True(t, errors.Is(err, ErrCorruptChain), "got %v", err)
}

var errInjected = errors.New("injected failure")

// failingDevice fails writes to data blocks once armed.
type failingDevice struct {
	disk.Device
	dataStart int
	armed     bool
}

func (d *failingDevice) WriteBlock(index int, buf []byte) error {
	if d.armed && index >= d.dataStart {
		return errInjected
	}
	return d.Device.WriteBlock(index, buf)
}

func TestDeviceError(t *testing.T) {
	m := disk.NewMemory(newSuperblock(10).totalBlocks)
	require.NoError(t, Format(m, 10))
	dev := &failingDevice{Device: m, dataStart: newSuperblock(10).dataStart}
	f, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, f.Create("f"))
	fd, err := f.Open("f")
	require.NoError(t, err)
	n, err := f.Write(fd, data(BlockSize, 0))
	require.NoError(t, err)
	require.Equal(t, BlockSize, n)

	dev.armed = true
	n, err = f.Write(fd, data(100, 0))
	assert.Equal(t, 0, n)
	var de *DeviceError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, "write", de.Op)
	assert.Equal(t, dev.dataStart+2, de.Block)
	assert.True(t, errors.Is(err, errInjected))

	size, err := f.Stat(fd)
	require.NoError(t, err)
	assert.EqualValues(t, BlockSize, size)
}

func TestFileExtentsAndFreeBlocks(t *testing.T) {
	f, _ := newMemFS(t, 10)
	writeFile(t, f, "a", data(10, 0))
	writeFile(t, f, "b", data(BlockSize+1, 0))

	exts, err := f.FileExtents("b")
	require.NoError(t, err)
	start := int64(f.sb.dataStart) * BlockSize
	if diff := cmp.Diff(1, len(exts)); diff != "" {
		t.Fatalf("extent count (-want +got):\n%s", diff)
	}
	assert.Equal(t, start+2*BlockSize, exts[0].Physical)
	assert.EqualValues(t, BlockSize+1, exts[0].Length)

	free, err := f.FreeBlocks()
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, start+4*BlockSize, free[0].Start)
	assert.Equal(t, start+10*BlockSize, free[0].End)

	require.NoError(t, f.Delete("a"))
	free, err = f.FreeBlocks()
	require.NoError(t, err)
	assert.Len(t, free, 2)

	require.NoError(t, f.Create("empty"))
	exts, err = f.FileExtents("empty")
	require.NoError(t, err)
	assert.Empty(t, exts)
}

func TestFileIO(t *testing.T) {
	f, _ := newMemFS(t, 4)
	require.NoError(t, f.Create("f"))
	file, err := f.OpenFile("f")
	require.NoError(t, err)

	want := data(10000, 6)
	n, err := io.Copy(file, bytes.NewReader(want))
	require.NoError(t, err)
	assert.EqualValues(t, len(want), n)

	off, err := file.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 0, off)
	got, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(want, got))

	off, err = file.Seek(-10, io.SeekEnd)
	require.NoError(t, err)
	assert.EqualValues(t, len(want)-10, off)
	off, err = file.Seek(5, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, len(want)-5, off)
	_, err = file.Seek(1, io.SeekEnd)
	assert.True(t, errors.Is(err, ErrInvalidOffset))

	// 12288 bytes fit; the rest is a short write.
	_, err = file.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	w, err := file.Write(make([]byte, 5000))
	assert.Equal(t, io.ErrShortWrite, err)
	assert.Equal(t, 3*BlockSize-len(want), w)

	require.NoError(t, file.Close())
	assert.True(t, errors.Is(file.Close(), ErrInvalidHandle))
}

func TestMountFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, FormatFile(path, 16))

	f, err := MountFile(path)
	require.NoError(t, err)
	writeFile(t, f, "f", data(5000, 2))

	_, err = MountFile(path)
	assert.True(t, errors.Is(err, disk.ErrLocked), "second mount got %v", err)

	require.NoError(t, f.Unmount())

	f, err = MountFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data(5000, 2), readFile(t, f, "f")))
	require.NoError(t, f.Unmount())
}

func TestSync(t *testing.T) {
	f, m := newMemFS(t, 10)
	writeFile(t, f, "f", data(10, 0))
	require.NoError(t, f.Sync())

	// A second mount of the synced contents sees the file.
	snapshot := disk.NewMemory(m.BlockCount())
	copy(snapshot.Bytes(), m.Bytes())
	g, err := Mount(snapshot)
	require.NoError(t, err)
	entries, err := g.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "f", entries[0].Name)
}
