package usbfs

import (
	"encoding/hex"
	"testing"
)

func firstBulkIn(alt *AltSetting) (Endpoint, bool) {
	if alt == nil {
		return Endpoint{}, false
	}
	for _, ep := range alt.Endpoints {
		if ep.IsInput() && ep.TransferType() == TransferTypeBulk {
			return ep, true
		}
	}
	return Endpoint{}, false
}

func TestParseConfigDescriptor(t *testing.T) {
	tests := []struct {
		name     string
		data     string // hex encoded
		wantErr  bool
		validate func(t *testing.T, c *ConfigDescriptor)
	}{
		{
			name: "vendor_function_with_iad",
			data: "09022800010100807d" + // Config: 40 bytes total, 1 interface, bus powered, 250mA
				"080b0001ff000000" + // IAD: first 0, count 1, vendor class
				"0904000002ff000000" + // Interface 0, alt 0, 2 endpoints, vendor class
				"07050102400000" + // Endpoint 0x01 OUT, bulk, 64 bytes
				"07058102400000", // Endpoint 0x81 IN, bulk, 64 bytes
			validate: func(t *testing.T, c *ConfigDescriptor) {
				if c.ConfigurationValue != 1 {
					t.Errorf("ConfigurationValue = %d, want 1", c.ConfigurationValue)
				}
				if len(c.Interfaces) != 1 {
					t.Fatalf("len(Interfaces) = %d, want 1", len(c.Interfaces))
				}
				alt := c.FirstAltSetting()
				if alt == nil {
					t.Fatal("FirstAltSetting() = nil")
				}
				if len(alt.Endpoints) != 2 {
					t.Fatalf("len(Endpoints) = %d, want 2", len(alt.Endpoints))
				}
				ep, ok := firstBulkIn(alt)
				if !ok {
					t.Fatal("bulk IN endpoint not found")
				}
				if ep.Address != 0x81 {
					t.Errorf("bulk IN address = %02x, want 0x81", ep.Address)
				}
				if ep.Number() != 1 {
					t.Errorf("Number() = %d, want 1", ep.Number())
				}
				if ep.MaxPacketSize != 64 {
					t.Errorf("MaxPacketSize = %d, want 64", ep.MaxPacketSize)
				}
			},
		},
		{
			name: "multiple_alt_settings",
			data: "09023200020100c032" + // Config: 50 bytes total, 2 interfaces
				"09040000010e010000" + // Interface 0, alt 0, 1 endpoint
				"0705830308000a" + // Endpoint 0x83 IN, interrupt, 8 bytes
				"09040100000e020000" + // Interface 1, alt 0, 0 endpoints
				"09040101010e020000" + // Interface 1, alt 1, 1 endpoint
				"07058205000201", // Endpoint 0x82 IN, isochronous, 512 bytes
			validate: func(t *testing.T, c *ConfigDescriptor) {
				if len(c.Interfaces) != 2 {
					t.Fatalf("len(Interfaces) = %d, want 2", len(c.Interfaces))
				}
				if n := len(c.Interfaces[1].AltSettings); n != 2 {
					t.Fatalf("Interface[1] AltSettings = %d, want 2", n)
				}
				if n := len(c.Interfaces[1].AltSettings[0].Endpoints); n != 0 {
					t.Errorf("Interface[1].AltSettings[0] endpoints = %d, want 0", n)
				}
				ep := c.Interfaces[1].AltSettings[1].Endpoints[0]
				if ep.TransferType() != TransferTypeIsochronous {
					t.Errorf("transfer type = %d, want isochronous", ep.TransferType())
				}
				if _, ok := firstBulkIn(c.FirstAltSetting()); ok {
					t.Error("found a bulk IN endpoint on an interrupt-only interface")
				}
			},
		},
		{
			name: "class_specific_descriptor_in_extra",
			data: "09022200010100c032" + // Config: 34 bytes total
				"090400000103010000" + // Interface 0: HID class
				"092111010001223f00" + // HID descriptor
				"0705810340000a", // Endpoint 0x81 IN, interrupt
			validate: func(t *testing.T, c *ConfigDescriptor) {
				alt := c.FirstAltSetting()
				if len(alt.Extra) != 9 || alt.Extra[1] != 0x21 {
					t.Errorf("Extra = %x, want the 9-byte HID descriptor", alt.Extra)
				}
				if len(alt.Endpoints) != 1 {
					t.Errorf("len(Endpoints) = %d, want 1", len(alt.Endpoints))
				}
			},
		},
		{
			name: "no_interfaces",
			data: "09020900000100c032",
			validate: func(t *testing.T, c *ConfigDescriptor) {
				if c.FirstAltSetting() != nil {
					t.Error("FirstAltSetting() should be nil without interfaces")
				}
			},
		},
		{
			name:    "too_short",
			data:    "0902",
			wantErr: true,
		},
		{
			name:    "wrong_descriptor_type",
			data:    "12010002ff00004005f0",
			wantErr: true,
		},
		{
			name: "truncated_endpoint",
			data: "09021700010100c032" +
				"090400000102ff0000" +
				"0505810240",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := hex.DecodeString(tt.data)
			if err != nil {
				t.Fatalf("bad fixture: %v", err)
			}

			c, err := ParseConfigDescriptor(data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConfigDescriptor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.validate != nil && c != nil {
				tt.validate(t, c)
			}
		})
	}
}

func TestParseDeviceDescriptor(t *testing.T) {
	data, _ := hex.DecodeString("12010002ff00004005f00100000101020001")

	d, err := ParseDeviceDescriptor(data)
	if err != nil {
		t.Fatalf("ParseDeviceDescriptor() error = %v", err)
	}
	if d.VendorID != 0xf005 || d.ProductID != 0x0001 {
		t.Errorf("VID:PID = %04x:%04x, want f005:0001", d.VendorID, d.ProductID)
	}
	if d.USBVersion != 0x0200 {
		t.Errorf("USBVersion = %04x, want 0200", d.USBVersion)
	}
	if d.NumConfigurations != 1 {
		t.Errorf("NumConfigurations = %d, want 1", d.NumConfigurations)
	}

	if _, err := ParseDeviceDescriptor(data[:10]); err == nil {
		t.Error("expected error for truncated descriptor")
	}
}

func TestFirstAltSettingEmpty(t *testing.T) {
	c := &ConfigDescriptor{}
	if c.FirstAltSetting() != nil {
		t.Error("FirstAltSetting() on a config without interfaces is not nil")
	}
}
