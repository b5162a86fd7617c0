package usbfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultSysfsRoot = "/sys/bus/usb/devices"
	DefaultDevRoot   = "/dev/bus/usb"
)

// DeviceInfo describes a USB device as seen in sysfs.
type DeviceInfo struct {
	Name         string
	Bus          uint8
	Address      uint8
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	Serial       string

	devRoot string
}

// Path returns the usbfs device node for the device.
func (d DeviceInfo) Path() string {
	root := d.devRoot
	if root == "" {
		root = DefaultDevRoot
	}
	return filepath.Join(root, fmt.Sprintf("%03d", d.Bus), fmt.Sprintf("%03d", d.Address))
}

// Enumerator lists USB devices from sysfs.
type Enumerator struct {
	SysfsRoot string
	DevRoot   string
}

// NewEnumerator returns an enumerator over the live system.
func NewEnumerator() *Enumerator {
	return &Enumerator{SysfsRoot: DefaultSysfsRoot, DevRoot: DefaultDevRoot}
}

// Devices returns every device sysfs knows about, ordered by bus and address.
func (e *Enumerator) Devices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir(e.SysfsRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read sysfs USB directory: %w", err)
	}

	var devices []DeviceInfo
	for _, entry := range entries {
		name := entry.Name()

		// Interfaces look like 1-1:1.0
		if strings.Contains(name, ":") {
			continue
		}
		if !strings.Contains(name, "-") && !strings.HasPrefix(name, "usb") {
			continue
		}

		info, err := e.load(name)
		if err != nil {
			continue
		}
		devices = append(devices, info)
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Bus != devices[j].Bus {
			return devices[i].Bus < devices[j].Bus
		}
		return devices[i].Address < devices[j].Address
	})

	return devices, nil
}

// Find returns the devices matching vendorID and productID.
func (e *Enumerator) Find(vendorID, productID uint16) ([]DeviceInfo, error) {
	devices, err := e.Devices()
	if err != nil {
		return nil, err
	}

	var matched []DeviceInfo
	for _, d := range devices {
		if d.VendorID == vendorID && d.ProductID == productID {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

func (e *Enumerator) load(name string) (DeviceInfo, error) {
	dir := filepath.Join(e.SysfsRoot, name)

	read := func(file string) (string, error) {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	readUint := func(file string, base, bits int) (uint64, error) {
		s, err := read(file)
		if err != nil {
			return 0, err
		}
		return strconv.ParseUint(s, base, bits)
	}

	info := DeviceInfo{Name: name, devRoot: e.DevRoot}

	bus, err := readUint("busnum", 10, 8)
	if err != nil {
		return info, err
	}
	addr, err := readUint("devnum", 10, 8)
	if err != nil {
		return info, err
	}
	vid, err := readUint("idVendor", 16, 16)
	if err != nil {
		return info, err
	}
	pid, err := readUint("idProduct", 16, 16)
	if err != nil {
		return info, err
	}

	info.Bus = uint8(bus)
	info.Address = uint8(addr)
	info.VendorID = uint16(vid)
	info.ProductID = uint16(pid)

	// Optional string attributes
	info.Manufacturer, _ = read("manufacturer")
	info.Product, _ = read("product")
	info.Serial, _ = read("serial")

	return info, nil
}
