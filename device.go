package bomc1

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kevmo314/go-bomc1/internal/monitor"
	"github.com/sirupsen/logrus"
)

// Option configures a Device.
type Option func(*Device)

func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Device) {
		if log != nil {
			d.log = log
		}
	}
}

// WithDeviceID sets the identifier the device is logged and published
// under. Discovery defaults it to the usbfs bus/address pair.
func WithDeviceID(id string) Option {
	return func(d *Device) {
		d.id = id
	}
}

// WithTransferTimeout sets the per-transfer timeout of transports opened
// by discovery. It has no effect on New.
func WithTransferTimeout(timeout time.Duration) Option {
	return func(d *Device) {
		d.timeout = timeout
	}
}

// Device is the BOMC1 protocol driver. It owns its Transport and the
// AcquisitionConfig last written to the module. Calls are serialised.
type Device struct {
	t       Transport
	id      string
	timeout time.Duration
	log     logrus.FieldLogger

	mu     sync.Mutex
	config AcquisitionConfig
	closed bool
}

// New binds a Device to an already opened transport.
func New(t Transport, opts ...Option) *Device {
	d := &Device{
		t:       t,
		id:      "bomc1",
		timeout: DefaultTimeout,
		log:     defaultLogger(),
		config:  AcquisitionConfig{LineControl: DefaultLineControl()},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.WithField("device", d.id)
	return d
}

// ID returns the identifier the device was opened with.
func (d *Device) ID() string {
	return d.id
}

// Config returns a copy of the host-side acquisition settings.
func (d *Device) Config() AcquisitionConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}

// IntegrationTime reads the integration time in microseconds.
func (d *Device) IntegrationTime() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrNoDevice
	}

	buf, err := d.t.ControlRead(RequestIntegrationTime, 4)
	if err != nil {
		recordTransferError(err)
		return 0, fmt.Errorf("failed to read integration time: %w", err)
	}
	if len(buf) != 4 {
		return 0, &TransportError{Op: "control_read", Request: RequestIntegrationTime, Kind: KindShortRead,
			Err: fmt.Errorf("read %d of 4 bytes", len(buf))}
	}

	us := binary.LittleEndian.Uint32(buf)
	d.config.IntegrationTime = us
	return us, nil
}

// SetIntegrationTime writes the integration time in microseconds.
func (d *Device) SetIntegrationTime(us uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var payload [4]byte
	binary.LittleEndian.PutUint32(payload[:], us)
	if err := d.write(RequestIntegrationTime, payload[:]); err != nil {
		return fmt.Errorf("failed to set integration time: %w", err)
	}

	d.config.IntegrationTime = us
	d.log.WithField("integration_time_us", us).Info("integration time set")
	return nil
}

func (d *Device) SetMovingAvgDepth(n uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.write(RequestMovingAvgDepth, []byte{n}); err != nil {
		return fmt.Errorf("failed to set moving average depth: %w", err)
	}
	d.config.MovingAvgDepth = n
	return nil
}

func (d *Device) SetTotalAvgDepth(n uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.write(RequestTotalAvgDepth, []byte{n}); err != nil {
		return fmt.Errorf("failed to set total average depth: %w", err)
	}
	d.config.TotalAvgDepth = n
	return nil
}

// MovingAvgDepth always fails: the firmware has no read request for it.
func (d *Device) MovingAvgDepth() (uint8, error) {
	return 0, fmt.Errorf("moving average depth: %w", ErrNotSupported)
}

// TotalAvgDepth always fails: the firmware has no read request for it.
func (d *Device) TotalAvgDepth() (uint8, error) {
	return 0, fmt.Errorf("total average depth: %w", ErrNotSupported)
}

// Acquire writes the line control mask for lc, triggers a readout and
// reads one frame from the bulk IN endpoint. On any failure it returns the
// zero Frame; nothing is retried.
func (d *Device) Acquire(lc LineControl) (Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.acquireTimed(lc)
}

// AcquireBatch acquires n frames with the same line control, holding the
// device for the whole batch. It stops at the first failure and returns no
// frames.
func (d *Device) AcquireBatch(n int, lc LineControl) ([]Frame, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: batch size %d", ErrValueOutOfRange, n)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	frames := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		f, err := d.acquireTimed(lc)
		if err != nil {
			return nil, fmt.Errorf("acquisition %d of %d: %w", i+1, n, err)
		}
		frames = append(frames, f)
	}

	d.log.WithFields(logrus.Fields{
		"frames": n,
		"mask":   fmt.Sprintf("0x%02x", lc.Mask()),
	}).Info("batch acquired")
	return frames, nil
}

// acquireTimed runs one acquisition and records its metrics. d.mu must be
// held.
func (d *Device) acquireTimed(lc LineControl) (Frame, error) {
	start := time.Now()
	frame, err := d.acquire(lc)
	if err != nil {
		monitor.Acquisitions.WithLabelValues("error").Inc()
		return Frame{}, err
	}

	monitor.Acquisitions.WithLabelValues("ok").Inc()
	monitor.AcquisitionDuration.Observe(time.Since(start).Seconds())
	return frame, nil
}

func (d *Device) acquire(lc LineControl) (Frame, error) {
	if d.closed {
		return Frame{}, ErrNoDevice
	}

	ep, err := d.bulkIn()
	if err != nil {
		return Frame{}, err
	}

	if err := d.write(RequestPixelLineControl, []byte{lc.Mask()}); err != nil {
		return Frame{}, fmt.Errorf("failed to write line control: %w", err)
	}
	d.config.LineControl = lc

	if err := d.write(RequestBeginRead, nil); err != nil {
		return Frame{}, fmt.Errorf("failed to trigger readout: %w", err)
	}

	payload, err := d.t.BulkRead(ep.Address, DataSize)
	if err != nil {
		recordTransferError(err)
		return Frame{}, fmt.Errorf("failed to read frame: %w", err)
	}
	if len(payload) != DataSize {
		err := &TransportError{Op: "bulk_read", Request: ep.Address, Kind: KindShortRead,
			Err: fmt.Errorf("read %d of %d bytes", len(payload), DataSize)}
		recordTransferError(err)
		return Frame{}, fmt.Errorf("failed to read frame: %w", err)
	}

	d.log.WithField("endpoint", fmt.Sprintf("0x%02x", ep.Address)).Debug("frame read")
	return DecodeFrame(payload)
}

// bulkIn resolves the IN endpoint from the active configuration.
func (d *Device) bulkIn() (Endpoint, error) {
	eps, err := d.t.Endpoints()
	if err != nil {
		recordTransferError(err)
		return Endpoint{}, fmt.Errorf("failed to list endpoints: %w", err)
	}
	ep, ok := FindEndpoint(eps, Endpoint.IsInput)
	if !ok {
		return Endpoint{}, ErrEndpointNotFound
	}
	return ep, nil
}

func (d *Device) write(request uint8, payload []byte) error {
	if d.closed {
		return ErrNoDevice
	}
	if err := d.t.ControlWrite(request, payload); err != nil {
		recordTransferError(err)
		return err
	}
	return nil
}

// Close releases the transport. Further calls fail with ErrNoDevice.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.t.Close()
}

func recordTransferError(err error) {
	var te *TransportError
	if errors.As(err, &te) {
		monitor.TransferErrors.WithLabelValues(te.Op, te.Kind.String()).Inc()
	}
}
