package bomc1

import (
	"errors"
	"fmt"
)

var (
	ErrDeviceNotFound   = errors.New("bomc1: device not found")
	ErrEndpointNotFound = errors.New("bomc1: bulk IN endpoint not found")
	ErrNotSupported     = errors.New("bomc1: not supported by the device protocol")
	ErrUnknownField     = errors.New("bomc1: unknown configuration field")
	ErrValueOutOfRange  = errors.New("bomc1: value out of range")
	ErrInvalidFrame     = errors.New("bomc1: invalid frame")
)

// Transfer failure kinds, matched by errors.Is against a *TransportError.
var (
	ErrTimeout   = errors.New("timeout")
	ErrStall     = errors.New("stall")
	ErrShortRead = errors.New("short read")
	ErrNoDevice  = errors.New("no device")
	ErrIO        = errors.New("I/O error")
)

type TransferKind int

const (
	KindIO TransferKind = iota
	KindTimeout
	KindStall
	KindShortRead
	KindNoDevice
)

func (k TransferKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindStall:
		return "stall"
	case KindShortRead:
		return "short-read"
	case KindNoDevice:
		return "no-device"
	}
	return "io"
}

func (k TransferKind) sentinel() error {
	switch k {
	case KindTimeout:
		return ErrTimeout
	case KindStall:
		return ErrStall
	case KindShortRead:
		return ErrShortRead
	case KindNoDevice:
		return ErrNoDevice
	}
	return ErrIO
}

// TransportError reports a failed control or bulk transfer.
type TransportError struct {
	Op      string // control_write, control_read or bulk_read
	Request uint8  // vendor request or endpoint address
	Kind    TransferKind
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s 0x%02x: %s", e.Op, e.Request, e.Kind)
	}
	return fmt.Sprintf("%s 0x%02x: %s: %v", e.Op, e.Request, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTimeout) and friends work on a TransportError.
func (e *TransportError) Is(target error) bool {
	return target == e.Kind.sentinel()
}
