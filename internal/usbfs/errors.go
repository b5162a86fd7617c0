package usbfs

import "errors"

var (
	ErrClosed           = errors.New("usbfs: handle closed")
	ErrPermissionDenied = errors.New("usbfs: permission denied")
	ErrBusy             = errors.New("usbfs: device busy")
	ErrNotSupported     = errors.New("usbfs: not supported on this platform")
)
