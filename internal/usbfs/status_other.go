//go:build !linux

package usbfs

import "errors"

func Classify(err error) Status {
	if errors.Is(err, ErrClosed) || errors.Is(err, ErrNotSupported) {
		return StatusNoDevice
	}
	return StatusIO
}
