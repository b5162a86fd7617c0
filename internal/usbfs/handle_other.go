//go:build !linux

package usbfs

import "time"

// Handle is unavailable outside Linux; every method reports ErrNotSupported.
type Handle struct{}

func Open(path string) (*Handle, error) {
	return nil, ErrNotSupported
}

func (h *Handle) Path() string { return "" }

func (h *Handle) Close() error { return nil }

func (h *Handle) ClaimInterface(iface uint8) error { return ErrNotSupported }

func (h *Handle) Control(requestType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	return 0, ErrNotSupported
}

func (h *Handle) Bulk(endpoint uint8, data []byte, timeout time.Duration) (int, error) {
	return 0, ErrNotSupported
}

func (h *Handle) Configuration(timeout time.Duration) (uint8, error) {
	return 0, ErrNotSupported
}

func (h *Handle) SetConfiguration(value uint8) error { return ErrNotSupported }

func (h *Handle) DeviceDescriptor(timeout time.Duration) (*DeviceDescriptor, error) {
	return nil, ErrNotSupported
}

func (h *Handle) ConfigDescriptor(index uint8, timeout time.Duration) (*ConfigDescriptor, error) {
	return nil, ErrNotSupported
}

func (h *Handle) ActiveConfigDescriptor(timeout time.Duration) (*ConfigDescriptor, error) {
	return nil, ErrNotSupported
}
