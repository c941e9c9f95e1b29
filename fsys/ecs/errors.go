package ecs

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotMounted       = errors.New("ecs: no filesystem mounted")
	ErrInvalidSignature = errors.New("ecs: invalid superblock signature")
	ErrInvalidLayout    = errors.New("ecs: inconsistent superblock layout")
	ErrInvalidName      = errors.New("ecs: invalid file name")
	ErrNameCollision    = errors.New("ecs: file already exists")
	ErrDirectoryFull    = errors.New("ecs: root directory is full")
	ErrNotFound         = errors.New("ecs: file not found")
	ErrFileBusy         = errors.New("ecs: file is open")
	ErrTooManyOpen      = errors.New("ecs: too many open files")
	ErrInvalidHandle    = errors.New("ecs: invalid file descriptor")
	ErrInvalidOffset    = errors.New("ecs: offset beyond end of file")
	ErrNoSpace          = errors.New("ecs: no free data blocks")
	ErrCorruptChain     = errors.New("ecs: corrupt block chain")
)

// DeviceError reports a failed block device operation. Block is the
// absolute block index on the device.
type DeviceError struct {
	Op    string
	Block int
	Err   error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("ecs: %s block %d: %v", e.Op, e.Block, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the device's error.
func (e *DeviceError) Cause() error { return e.Err }
