package bomc1

import "testing"

func TestRequestType(t *testing.T) {
	tests := []struct {
		name      string
		recipient uint8
		typ       uint8
		direction uint8
		want      uint8
	}{
		{"vendor_write", RecipientDevice, TypeVendor, DirectionHostToDevice, 0x40},
		{"vendor_read", RecipientDevice, TypeVendor, DirectionDeviceToHost, 0xC0},
		{"standard_read", RecipientDevice, TypeStandard, DirectionDeviceToHost, 0x80},
		{"class_interface_write", RecipientInterface, TypeClass, DirectionHostToDevice, 0x21},
		{"vendor_endpoint_read", RecipientEndpoint, TypeVendor, DirectionDeviceToHost, 0xC2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequestType(tt.recipient, tt.typ, tt.direction); got != tt.want {
				t.Errorf("RequestType() = 0x%02x, want 0x%02x", got, tt.want)
			}
		})
	}

	if vendorWrite != 0x40 || vendorRead != 0xC0 {
		t.Errorf("vendor request types = 0x%02x/0x%02x, want 0x40/0xC0", vendorWrite, vendorRead)
	}
}

func TestLineControlMask(t *testing.T) {
	for m := uint8(0); m < 8; m++ {
		lc := LineControlFromMask(m)
		if got := lc.Mask(); got != m {
			t.Errorf("LineControlFromMask(%d).Mask() = %d", m, got)
		}
	}

	lc := LineControl{DarkCurrent: true, TotalAverage: true}
	if lc.Mask() != 0x05 {
		t.Errorf("Mask() = 0x%02x, want 0x05", lc.Mask())
	}
	if DefaultLineControl().Mask() != 0x07 {
		t.Errorf("DefaultLineControl().Mask() = 0x%02x, want 0x07", DefaultLineControl().Mask())
	}
}

func TestTransferKindString(t *testing.T) {
	kinds := map[TransferKind]string{
		KindIO:        "io",
		KindTimeout:   "timeout",
		KindStall:     "stall",
		KindShortRead: "short-read",
		KindNoDevice:  "no-device",
	}
	for k, want := range kinds {
		if k.String() != want {
			t.Errorf("%d.String() = %q, want %q", k, k.String(), want)
		}
	}
}
