package bomc1

import (
	"errors"
	"testing"
	"time"

	"github.com/kevmo314/go-bomc1/internal/logging"
	"github.com/kevmo314/go-bomc1/internal/usbfs"
)

type controlCall struct {
	requestType, request uint8
	value, index         uint16
	length               int
}

// fakeHandle stands in for an open usbfs node.
type fakeHandle struct {
	controls    []controlCall
	controlN    int // bytes reported moved; -1 means len(data)
	bulkN       int
	bulkErr     error
	active      uint8
	descriptors int
	timeouts    []time.Duration
}

func (h *fakeHandle) Control(requestType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	h.controls = append(h.controls, controlCall{requestType, request, value, index, len(data)})
	h.timeouts = append(h.timeouts, timeout)
	if h.controlN < 0 {
		return len(data), nil
	}
	return h.controlN, nil
}

func (h *fakeHandle) Bulk(endpoint uint8, data []byte, timeout time.Duration) (int, error) {
	if h.bulkErr != nil {
		return 0, h.bulkErr
	}
	return h.bulkN, nil
}

func (h *fakeHandle) Configuration(timeout time.Duration) (uint8, error) {
	return h.active, nil
}

func (h *fakeHandle) ActiveConfigDescriptor(timeout time.Duration) (*usbfs.ConfigDescriptor, error) {
	h.descriptors++
	return &usbfs.ConfigDescriptor{
		ConfigurationValue: h.active,
		Interfaces: []usbfs.Interface{{
			AltSettings: []usbfs.AltSetting{{
				Endpoints: []usbfs.Endpoint{
					{Address: 0x01, Attributes: usbfs.TransferTypeBulk, MaxPacketSize: 512},
					{Address: 0x81, Attributes: usbfs.TransferTypeBulk, MaxPacketSize: 512},
				},
			}},
		}},
	}, nil
}

func (h *fakeHandle) Close() error { return nil }

func newFakeHandle() *fakeHandle {
	return &fakeHandle{controlN: -1, bulkN: DataSize, active: 1}
}

func TestUSBTransportControl(t *testing.T) {
	h := newFakeHandle()
	tr := newUSBTransport(h, WithTimeout(500*time.Millisecond), WithTransportLogger(logging.Discard()))

	if err := tr.ControlWrite(RequestPixelLineControl, []byte{0x07}); err != nil {
		t.Fatalf("ControlWrite() error = %v", err)
	}
	data, err := tr.ControlRead(RequestIntegrationTime, 4)
	if err != nil || len(data) != 4 {
		t.Fatalf("ControlRead() = %d bytes, %v", len(data), err)
	}

	want := []controlCall{
		{0x40, RequestPixelLineControl, 0, 0, 1},
		{0xC0, RequestIntegrationTime, 0, 0, 4},
	}
	for i, w := range want {
		if h.controls[i] != w {
			t.Errorf("control %d = %+v, want %+v", i, h.controls[i], w)
		}
		if h.timeouts[i] != 500*time.Millisecond {
			t.Errorf("control %d timeout = %v", i, h.timeouts[i])
		}
	}

	h.controlN = 2
	_, err = tr.ControlRead(RequestIntegrationTime, 4)
	var te *TransportError
	if !errors.As(err, &te) || te.Kind != KindShortRead || te.Op != "control_read" {
		t.Errorf("short ControlRead() error = %v, want control_read short-read", err)
	}
	if err := tr.ControlWrite(RequestIntegrationTime, []byte{1, 2, 3, 4}); !errors.Is(err, ErrShortRead) {
		t.Errorf("short ControlWrite() error = %v, want ErrShortRead", err)
	}
}

func TestUSBTransportBulkRead(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		err     error
		wantErr error
	}{
		{name: "full_frame", n: DataSize},
		{name: "short_frame", n: 7000, wantErr: ErrShortRead},
		{name: "empty", n: 0, wantErr: ErrShortRead},
		{name: "closed_handle", err: usbfs.ErrClosed, wantErr: ErrNoDevice},
		{name: "other_failure", err: errors.New("overflow"), wantErr: ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newFakeHandle()
			h.bulkN = tt.n
			h.bulkErr = tt.err
			tr := newUSBTransport(h)

			data, err := tr.BulkRead(0x81, DataSize)
			if tt.wantErr == nil {
				if err != nil || len(data) != DataSize {
					t.Errorf("BulkRead() = %d bytes, %v", len(data), err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("BulkRead() error = %v, want %v", err, tt.wantErr)
			}
			if data != nil {
				t.Errorf("BulkRead() returned %d bytes on failure", len(data))
			}
		})
	}
}

func TestUSBTransportEndpointsCached(t *testing.T) {
	h := newFakeHandle()
	tr := newUSBTransport(h)

	for i := 0; i < 2; i++ {
		eps, err := tr.Endpoints()
		if err != nil {
			t.Fatal(err)
		}
		if len(eps) != 2 || eps[1].Address != 0x81 || !eps[1].IsInput() {
			t.Errorf("Endpoints() = %+v", eps)
		}
	}
	if h.descriptors != 1 {
		t.Errorf("descriptor read %d times for one configuration, want 1", h.descriptors)
	}

	h.active = 2
	if _, err := tr.Endpoints(); err != nil {
		t.Fatal(err)
	}
	if h.descriptors != 2 {
		t.Errorf("descriptor not re-read after configuration change")
	}
}

func TestAcquireOverUSBTransportShortRead(t *testing.T) {
	h := newFakeHandle()
	h.bulkN = 7000

	f, err := New(newUSBTransport(h)).Acquire(DefaultLineControl())
	var te *TransportError
	if !errors.As(err, &te) || te.Kind != KindShortRead || te.Op != "bulk_read" {
		t.Fatalf("Acquire() error = %v, want bulk_read short-read", err)
	}
	if f.Len() != 0 {
		t.Errorf("Acquire() returned %d samples on a short read", f.Len())
	}
}
