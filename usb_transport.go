package bomc1

import (
	"fmt"
	"sync"
	"time"

	"github.com/kevmo314/go-bomc1/internal/usbfs"
	"github.com/sirupsen/logrus"
)

const (
	defaultInterface     uint8 = 0
	defaultConfiguration uint8 = 1
)

// TransportOption configures a USBTransport.
type TransportOption func(*USBTransport)

// WithTimeout sets the per-transfer timeout.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *USBTransport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithTransportLogger sets the logger transfers are traced to.
func WithTransportLogger(log logrus.FieldLogger) TransportOption {
	return func(t *USBTransport) {
		if log != nil {
			t.log = log
		}
	}
}

// deviceHandle is the part of *usbfs.Handle a transport uses once the
// interface is claimed.
type deviceHandle interface {
	Control(requestType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error)
	Bulk(endpoint uint8, data []byte, timeout time.Duration) (int, error)
	Configuration(timeout time.Duration) (uint8, error)
	ActiveConfigDescriptor(timeout time.Duration) (*usbfs.ConfigDescriptor, error)
	Close() error
}

// USBTransport is a Transport over a Linux usbfs device node.
type USBTransport struct {
	handle  deviceHandle
	timeout time.Duration
	log     logrus.FieldLogger

	mu     sync.Mutex
	config map[uint8]*usbfs.ConfigDescriptor
}

// OpenUSBTransport opens the node at path, selects configuration 1 if the
// device is unconfigured and claims interface 0.
func OpenUSBTransport(path string, opts ...TransportOption) (*USBTransport, error) {
	h, err := usbfs.Open(path)
	if err != nil {
		return nil, err
	}
	t := newUSBTransport(h, opts...)

	active, err := h.Configuration(t.timeout)
	if err != nil {
		h.Close()
		return nil, t.wrap("get_configuration", 0, err)
	}
	if active == 0 {
		t.log.WithField("configuration", defaultConfiguration).Debug("selecting configuration")
		if err := h.SetConfiguration(defaultConfiguration); err != nil {
			h.Close()
			return nil, t.wrap("set_configuration", defaultConfiguration, err)
		}
	}

	if err := h.ClaimInterface(defaultInterface); err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to claim interface %d on %s: %w", defaultInterface, path, err)
	}

	return t, nil
}

func newUSBTransport(h deviceHandle, opts ...TransportOption) *USBTransport {
	t := &USBTransport{
		handle:  h,
		timeout: DefaultTimeout,
		log:     defaultLogger(),
		config:  make(map[uint8]*usbfs.ConfigDescriptor),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *USBTransport) ControlWrite(request uint8, payload []byte) error {
	n, err := t.handle.Control(vendorWrite, request, 0, 0, payload, t.timeout)
	t.log.WithFields(logrus.Fields{
		"request": fmt.Sprintf("0x%02x", request),
		"length":  len(payload),
	}).Debug("control write")
	if err != nil {
		return t.wrap("control_write", request, err)
	}
	if n < len(payload) {
		return &TransportError{Op: "control_write", Request: request, Kind: KindShortRead,
			Err: fmt.Errorf("wrote %d of %d bytes", n, len(payload))}
	}
	return nil
}

func (t *USBTransport) ControlRead(request uint8, length int) ([]byte, error) {
	buf := make([]byte, length)
	n, err := t.handle.Control(vendorRead, request, 0, 0, buf, t.timeout)
	t.log.WithFields(logrus.Fields{
		"request": fmt.Sprintf("0x%02x", request),
		"length":  n,
	}).Debug("control read")
	if err != nil {
		return nil, t.wrap("control_read", request, err)
	}
	if n < length {
		return nil, &TransportError{Op: "control_read", Request: request, Kind: KindShortRead,
			Err: fmt.Errorf("read %d of %d bytes", n, length)}
	}
	return buf, nil
}

func (t *USBTransport) BulkRead(endpoint uint8, length int) ([]byte, error) {
	buf := make([]byte, length)
	n, err := t.handle.Bulk(endpoint, buf, t.timeout)
	t.log.WithFields(logrus.Fields{
		"endpoint": fmt.Sprintf("0x%02x", endpoint),
		"length":   n,
	}).Debug("bulk read")
	if err != nil {
		return nil, t.wrap("bulk_read", endpoint, err)
	}
	if n < length {
		return nil, &TransportError{Op: "bulk_read", Request: endpoint, Kind: KindShortRead,
			Err: fmt.Errorf("read %d of %d bytes", n, length)}
	}
	return buf, nil
}

// Endpoints re-reads the active configuration value and returns the
// endpoints of its first interface. Parsed descriptors are cached per
// configuration value.
func (t *USBTransport) Endpoints() ([]Endpoint, error) {
	active, err := t.handle.Configuration(t.timeout)
	if err != nil {
		return nil, t.wrap("get_configuration", 0, err)
	}

	t.mu.Lock()
	cfg, ok := t.config[active]
	t.mu.Unlock()

	if !ok {
		cfg, err = t.handle.ActiveConfigDescriptor(t.timeout)
		if err != nil {
			return nil, t.wrap("get_descriptor", active, err)
		}
		t.mu.Lock()
		t.config[active] = cfg
		t.mu.Unlock()
	}

	alt := cfg.FirstAltSetting()
	if alt == nil {
		return nil, nil
	}

	eps := make([]Endpoint, 0, len(alt.Endpoints))
	for _, ep := range alt.Endpoints {
		eps = append(eps, Endpoint{
			Address:       ep.Address,
			Attributes:    ep.Attributes,
			MaxPacketSize: ep.MaxPacketSize,
		})
	}
	return eps, nil
}

func (t *USBTransport) Close() error {
	return t.handle.Close()
}

func (t *USBTransport) wrap(op string, request uint8, err error) error {
	return &TransportError{Op: op, Request: request, Kind: kindOf(usbfs.Classify(err)), Err: err}
}

func kindOf(s usbfs.Status) TransferKind {
	switch s {
	case usbfs.StatusTimeout:
		return KindTimeout
	case usbfs.StatusStall:
		return KindStall
	case usbfs.StatusNoDevice:
		return KindNoDevice
	}
	return KindIO
}

func defaultLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}
