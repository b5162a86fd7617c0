//go:build linux

package usbfs

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Classify maps a transfer error returned by Handle to a Status.
func Classify(err error) Status {
	switch {
	case errors.Is(err, unix.ETIMEDOUT):
		return StatusTimeout
	case errors.Is(err, unix.EPIPE):
		return StatusStall
	case errors.Is(err, unix.ENODEV), errors.Is(err, unix.ESHUTDOWN), errors.Is(err, ErrClosed):
		return StatusNoDevice
	}
	return StatusIO
}
