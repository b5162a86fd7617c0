package bomc1

import (
	"fmt"

	"github.com/kevmo314/go-bomc1/internal/usbfs"
)

// DeviceInfo identifies an attached BOMC1 module.
type DeviceInfo struct {
	Path         string
	Bus          uint8
	Address      uint8
	Manufacturer string
	Product      string
	Serial       string
}

// ID returns the bus/address pair devices are identified by.
func (i DeviceInfo) ID() string {
	return fmt.Sprintf("%03d-%03d", i.Bus, i.Address)
}

var enumerator = usbfs.NewEnumerator

// Discover lists every attached device matching VendorID and ProductID.
func Discover() ([]DeviceInfo, error) {
	found, err := enumerator().Find(VendorID, ProductID)
	if err != nil {
		return nil, err
	}

	infos := make([]DeviceInfo, 0, len(found))
	for _, f := range found {
		infos = append(infos, DeviceInfo{
			Path:         f.Path(),
			Bus:          f.Bus,
			Address:      f.Address,
			Manufacturer: f.Manufacturer,
			Product:      f.Product,
			Serial:       f.Serial,
		})
	}
	return infos, nil
}

// DiscoverFirst opens the first attached device.
func DiscoverFirst(opts ...Option) (*Device, error) {
	infos, err := Discover()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	if len(infos) == 0 {
		return nil, ErrDeviceNotFound
	}
	return OpenPath(infos[0].Path, append([]Option{WithDeviceID(infos[0].ID())}, opts...)...)
}

// OpenPath opens the device at a usbfs node such as /dev/bus/usb/001/004.
func OpenPath(path string, opts ...Option) (*Device, error) {
	// Options are applied twice: once here to pick up the transport
	// settings, then again by New.
	defaults := &Device{timeout: DefaultTimeout, log: defaultLogger()}
	for _, opt := range opts {
		opt(defaults)
	}

	t, err := OpenUSBTransport(path, WithTimeout(defaults.timeout), WithTransportLogger(defaults.log))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return New(t, opts...), nil
}
