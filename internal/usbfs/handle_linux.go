//go:build linux

package usbfs

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	ioctlControl          = 0xc0185500
	ioctlBulk             = 0xc0185502
	ioctlSetConfiguration = 0x80045505
	ioctlDisconnect       = 0x00005516
	ioctlClaimInterface   = 0x8004550f
	ioctlReleaseInterface = 0x80045510
	ioctlPassthrough      = 0xc0105512
	ioctlDisconnectClaim  = 0x8108551b
)

// struct usbdevfs_ctrltransfer
type ctrlTransfer struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
	Timeout     uint32
	Data        unsafe.Pointer
}

// struct usbdevfs_bulktransfer
type bulkTransfer struct {
	Endpoint uint32
	Length   uint32
	Timeout  uint32
	Data     unsafe.Pointer
}

// struct usbdevfs_ioctl
type passthrough struct {
	Interface int32
	Code      int32
	Data      unsafe.Pointer
}

// struct usbdevfs_disconnect_claim
type disconnectClaim struct {
	Interface uint32
	Flags     uint32
	Driver    [256]byte
}

// Handle is an open usbfs device node.
type Handle struct {
	path    string
	fd      int
	claimed map[uint8]bool
	closed  bool
	mu      sync.RWMutex
}

// Open opens the usbfs node at path for read/write.
func Open(path string) (*Handle, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		switch err {
		case unix.EACCES, unix.EPERM:
			return nil, fmt.Errorf("%s: %w", path, ErrPermissionDenied)
		case unix.EBUSY:
			return nil, fmt.Errorf("%s: %w", path, ErrBusy)
		}
		return nil, fmt.Errorf("failed to open device %s: %w", path, err)
	}

	return &Handle{
		path:    path,
		fd:      fd,
		claimed: make(map[uint8]bool),
	}, nil
}

// Path returns the device node the handle was opened from.
func (h *Handle) Path() string {
	return h.path
}

// Close releases every claimed interface and closes the node.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	for iface := range h.claimed {
		h.releaseLocked(iface)
	}

	h.closed = true
	return unix.Close(h.fd)
}

func (h *Handle) ioctl(req uintptr, arg unsafe.Pointer) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(h.fd), req, uintptr(arg))
	if errno != 0 {
		return 0, errno
	}
	return int(r), nil
}

// ClaimInterface claims iface, disconnecting any kernel driver bound to it.
func (h *Handle) ClaimInterface(iface uint8) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if h.claimed[iface] {
		return nil
	}

	dc := disconnectClaim{Interface: uint32(iface)}
	_, err := h.ioctl(ioctlDisconnectClaim, unsafe.Pointer(&dc))
	if err == nil {
		h.claimed[iface] = true
		return nil
	}
	if err != unix.ENOTTY {
		return fmt.Errorf("claim interface %d: %w", iface, err)
	}

	// Pre-3.15 kernels: disconnect and claim separately.
	pt := passthrough{Interface: int32(iface), Code: ioctlDisconnect}
	if _, err := h.ioctl(ioctlPassthrough, unsafe.Pointer(&pt)); err != nil && err != unix.ENODATA {
		return fmt.Errorf("detach kernel driver from interface %d: %w", iface, err)
	}

	num := uint32(iface)
	if _, err := h.ioctl(ioctlClaimInterface, unsafe.Pointer(&num)); err != nil {
		if err == unix.EBUSY {
			return fmt.Errorf("claim interface %d: %w", iface, ErrBusy)
		}
		return fmt.Errorf("claim interface %d: %w", iface, err)
	}

	h.claimed[iface] = true
	return nil
}

func (h *Handle) releaseLocked(iface uint8) error {
	if !h.claimed[iface] {
		return nil
	}

	num := uint32(iface)
	if _, err := h.ioctl(ioctlReleaseInterface, unsafe.Pointer(&num)); err != nil {
		return err
	}

	delete(h.claimed, iface)
	return nil
}

// Control performs a synchronous control transfer. The direction bit of
// requestType decides whether data is sent or filled in.
func (h *Handle) Control(requestType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return 0, ErrClosed
	}

	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}

	ctrl := ctrlTransfer{
		RequestType: requestType,
		Request:     request,
		Value:       value,
		Index:       index,
		Length:      uint16(len(data)),
		Timeout:     uint32(timeout.Milliseconds()),
		Data:        ptr,
	}

	n, err := h.ioctl(ioctlControl, unsafe.Pointer(&ctrl))
	runtime.KeepAlive(data)
	return n, err
}

// Bulk performs a synchronous bulk transfer on endpoint and returns the
// number of bytes actually moved.
func (h *Handle) Bulk(endpoint uint8, data []byte, timeout time.Duration) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return 0, ErrClosed
	}

	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}

	bulk := bulkTransfer{
		Endpoint: uint32(endpoint),
		Length:   uint32(len(data)),
		Timeout:  uint32(timeout.Milliseconds()),
		Data:     ptr,
	}

	n, err := h.ioctl(ioctlBulk, unsafe.Pointer(&bulk))
	runtime.KeepAlive(data)
	return n, err
}

// Configuration returns the bConfigurationValue currently selected, 0 when
// the device is unconfigured.
func (h *Handle) Configuration(timeout time.Duration) (uint8, error) {
	buf := make([]byte, 1)
	if _, err := h.Control(endpointDirIn, requestGetConfiguration, 0, 0, buf, timeout); err != nil {
		return 0, fmt.Errorf("get configuration: %w", err)
	}
	return buf[0], nil
}

// SetConfiguration selects configuration value.
func (h *Handle) SetConfiguration(value uint8) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}

	cfg := uint32(value)
	if _, err := h.ioctl(ioctlSetConfiguration, unsafe.Pointer(&cfg)); err != nil {
		return fmt.Errorf("set configuration %d: %w", value, err)
	}
	return nil
}

// DeviceDescriptor reads the device descriptor from the device.
func (h *Handle) DeviceDescriptor(timeout time.Duration) (*DeviceDescriptor, error) {
	buf := make([]byte, 18)
	n, err := h.Control(endpointDirIn, requestGetDescriptor, DescriptorTypeDevice<<8, 0, buf, timeout)
	if err != nil {
		return nil, fmt.Errorf("get device descriptor: %w", err)
	}
	return ParseDeviceDescriptor(buf[:n])
}

// ConfigDescriptor reads and parses the configuration descriptor at index.
func (h *Handle) ConfigDescriptor(index uint8, timeout time.Duration) (*ConfigDescriptor, error) {
	value := uint16(DescriptorTypeConfig)<<8 | uint16(index)

	// Header first for wTotalLength
	header := make([]byte, 9)
	n, err := h.Control(endpointDirIn, requestGetDescriptor, value, 0, header, timeout)
	if err != nil {
		return nil, fmt.Errorf("get config descriptor header: %w", err)
	}
	if n < 4 {
		return nil, fmt.Errorf("config descriptor header too short: %d bytes", n)
	}

	full := make([]byte, binary.LittleEndian.Uint16(header[2:4]))
	n, err = h.Control(endpointDirIn, requestGetDescriptor, value, 0, full, timeout)
	if err != nil {
		return nil, fmt.Errorf("get config descriptor: %w", err)
	}
	return ParseConfigDescriptor(full[:n])
}

// ActiveConfigDescriptor returns the descriptor of the configuration the
// device is currently running.
func (h *Handle) ActiveConfigDescriptor(timeout time.Duration) (*ConfigDescriptor, error) {
	active, err := h.Configuration(timeout)
	if err != nil {
		return nil, err
	}
	if active == 0 {
		return nil, fmt.Errorf("device is unconfigured")
	}

	dev, err := h.DeviceDescriptor(timeout)
	if err != nil {
		return nil, err
	}

	for i := uint8(0); i < dev.NumConfigurations; i++ {
		cfg, err := h.ConfigDescriptor(i, timeout)
		if err != nil {
			return nil, err
		}
		if cfg.ConfigurationValue == active {
			return cfg, nil
		}
	}
	return nil, fmt.Errorf("no descriptor for active configuration %d", active)
}
