package disk

import "github.com/pkg/errors"

// Memory is a Device held entirely in memory.
type Memory struct {
	data   []byte
	closed bool
}

// NewMemory returns a zeroed in-memory device of the given number of blocks.
func NewMemory(blocks int) *Memory {
	return &Memory{data: make([]byte, blocks*BlockSize)}
}

// Bytes returns the device contents. The slice aliases the device.
func (m *Memory) Bytes() []byte { return m.data }

// Reopen clears the closed state so the same contents can be mounted again.
func (m *Memory) Reopen() { m.closed = false }

// BlockCount returns the number of blocks on the device.
func (m *Memory) BlockCount() int { return len(m.data) / BlockSize }

// ReadBlock copies block index into buf.
func (m *Memory) ReadBlock(index int, buf []byte) error {
	b, err := m.block(index, buf)
	if err != nil {
		return err
	}
	copy(buf, b)
	return nil
}

// WriteBlock copies buf into block index.
func (m *Memory) WriteBlock(index int, buf []byte) error {
	b, err := m.block(index, buf)
	if err != nil {
		return err
	}
	copy(b, buf[:BlockSize])
	return nil
}

func (m *Memory) block(index int, buf []byte) ([]byte, error) {
	if m.closed {
		return nil, ErrClosed
	}
	if index < 0 || index >= m.BlockCount() {
		return nil, errors.Wrapf(ErrOutOfRange, "block %d of %d", index, m.BlockCount())
	}
	if len(buf) < BlockSize {
		return nil, errors.Errorf("buffer of %d bytes is smaller than a block", len(buf))
	}
	return m.data[index*BlockSize : (index+1)*BlockSize], nil
}

// Close marks the device closed.
func (m *Memory) Close() error {
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	return nil
}
