package usbfs

import (
	"encoding/binary"
	"fmt"
)

// Descriptor types
const (
	DescriptorTypeDevice    = 0x01
	DescriptorTypeConfig    = 0x02
	DescriptorTypeString    = 0x03
	DescriptorTypeInterface = 0x04
	DescriptorTypeEndpoint  = 0x05
)

// Standard requests used by the handle
const (
	requestGetDescriptor    = 0x06
	requestGetConfiguration = 0x08
)

// Endpoint attribute transfer types
const (
	TransferTypeControl     = 0x00
	TransferTypeIsochronous = 0x01
	TransferTypeBulk        = 0x02
	TransferTypeInterrupt   = 0x03
)

const endpointDirIn = 0x80

// DeviceDescriptor is the 18-byte standard device descriptor.
type DeviceDescriptor struct {
	USBVersion        uint16
	DeviceClass       uint8
	DeviceSubClass    uint8
	DeviceProtocol    uint8
	MaxPacketSize0    uint8
	VendorID          uint16
	ProductID         uint16
	DeviceVersion     uint16
	ManufacturerIndex uint8
	ProductIndex      uint8
	SerialNumberIndex uint8
	NumConfigurations uint8
}

// ParseDeviceDescriptor decodes a raw device descriptor.
func ParseDeviceDescriptor(buf []byte) (*DeviceDescriptor, error) {
	if len(buf) < 18 {
		return nil, fmt.Errorf("device descriptor too short: %d bytes", len(buf))
	}
	if buf[1] != DescriptorTypeDevice {
		return nil, fmt.Errorf("not a device descriptor (type: 0x%02x)", buf[1])
	}

	return &DeviceDescriptor{
		USBVersion:        binary.LittleEndian.Uint16(buf[2:4]),
		DeviceClass:       buf[4],
		DeviceSubClass:    buf[5],
		DeviceProtocol:    buf[6],
		MaxPacketSize0:    buf[7],
		VendorID:          binary.LittleEndian.Uint16(buf[8:10]),
		ProductID:         binary.LittleEndian.Uint16(buf[10:12]),
		DeviceVersion:     binary.LittleEndian.Uint16(buf[12:14]),
		ManufacturerIndex: buf[14],
		ProductIndex:      buf[15],
		SerialNumberIndex: buf[16],
		NumConfigurations: buf[17],
	}, nil
}

// ConfigDescriptor is a parsed configuration descriptor with its interfaces.
type ConfigDescriptor struct {
	TotalLength        uint16
	NumInterfaces      uint8
	ConfigurationValue uint8
	Attributes         uint8
	MaxPower           uint8

	Interfaces []Interface
}

// Interface groups the alternate settings sharing an interface number.
type Interface struct {
	Number      uint8
	AltSettings []AltSetting
}

// AltSetting is one interface descriptor and the endpoints that follow it.
type AltSetting struct {
	InterfaceNumber   uint8
	AlternateSetting  uint8
	InterfaceClass    uint8
	InterfaceSubClass uint8
	InterfaceProtocol uint8
	Endpoints         []Endpoint

	// Class-specific descriptors
	Extra []byte
}

// Endpoint is a parsed endpoint descriptor.
type Endpoint struct {
	Address       uint8
	Attributes    uint8
	MaxPacketSize uint16
	Interval      uint8
}

// IsInput reports whether data flows device-to-host.
func (e Endpoint) IsInput() bool {
	return e.Address&endpointDirIn != 0
}

// Number returns the endpoint number without the direction bit.
func (e Endpoint) Number() uint8 {
	return e.Address & 0x0F
}

// TransferType returns the transfer type bits of bmAttributes.
func (e Endpoint) TransferType() uint8 {
	return e.Attributes & 0x03
}

// ParseConfigDescriptor decodes a full configuration descriptor blob
// (header plus every interface/endpoint descriptor up to wTotalLength).
func ParseConfigDescriptor(data []byte) (*ConfigDescriptor, error) {
	if len(data) < 9 {
		return nil, fmt.Errorf("config descriptor too short: %d bytes", len(data))
	}
	if data[1] != DescriptorTypeConfig {
		return nil, fmt.Errorf("not a config descriptor (type: 0x%02x)", data[1])
	}

	c := &ConfigDescriptor{
		TotalLength:        binary.LittleEndian.Uint16(data[2:4]),
		NumInterfaces:      data[4],
		ConfigurationValue: data[5],
		Attributes:         data[7],
		MaxPower:           data[8],
	}

	end := len(data)
	if int(c.TotalLength) < end {
		end = int(c.TotalLength)
	}

	var current *AltSetting
	flush := func() {
		if current == nil {
			return
		}
		for i := range c.Interfaces {
			if c.Interfaces[i].Number == current.InterfaceNumber {
				c.Interfaces[i].AltSettings = append(c.Interfaces[i].AltSettings, *current)
				current = nil
				return
			}
		}
		c.Interfaces = append(c.Interfaces, Interface{
			Number:      current.InterfaceNumber,
			AltSettings: []AltSetting{*current},
		})
		current = nil
	}

	pos := int(data[0])
	for pos+2 <= end {
		length := int(data[pos])
		descType := data[pos+1]

		if length < 2 || pos+length > end {
			break
		}

		switch descType {
		case DescriptorTypeInterface:
			if length < 9 {
				return nil, fmt.Errorf("interface descriptor too short: %d bytes", length)
			}
			flush()
			current = &AltSetting{
				InterfaceNumber:   data[pos+2],
				AlternateSetting:  data[pos+3],
				InterfaceClass:    data[pos+5],
				InterfaceSubClass: data[pos+6],
				InterfaceProtocol: data[pos+7],
				Endpoints:         make([]Endpoint, 0, data[pos+4]),
			}

		case DescriptorTypeEndpoint:
			if length < 7 {
				return nil, fmt.Errorf("endpoint descriptor too short: %d bytes", length)
			}
			if current == nil {
				break
			}
			current.Endpoints = append(current.Endpoints, Endpoint{
				Address:       data[pos+2],
				Attributes:    data[pos+3],
				MaxPacketSize: binary.LittleEndian.Uint16(data[pos+4 : pos+6]),
				Interval:      data[pos+6],
			})

		default:
			// IADs, SuperSpeed companions and class-specific descriptors
			if current != nil {
				current.Extra = append(current.Extra, data[pos:pos+length]...)
			}
		}

		pos += length
	}
	flush()

	return c, nil
}

// FirstAltSetting returns alternate setting 0 of the first interface, the
// (0, 0) pair single-function devices expose their endpoints on.
func (c *ConfigDescriptor) FirstAltSetting() *AltSetting {
	if len(c.Interfaces) == 0 || len(c.Interfaces[0].AltSettings) == 0 {
		return nil
	}
	return &c.Interfaces[0].AltSettings[0]
}
