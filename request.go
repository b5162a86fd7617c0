package bomc1

// bmRequestType fields
const (
	RecipientDevice    uint8 = 0
	RecipientInterface uint8 = 1
	RecipientEndpoint  uint8 = 2

	TypeStandard uint8 = 0
	TypeClass    uint8 = 1
	TypeVendor   uint8 = 2

	DirectionHostToDevice uint8 = 0
	DirectionDeviceToHost uint8 = 1
)

const (
	requestTypeOffset      = 5
	requestDirectionOffset = 7
)

// Vendor requests understood by the BOMC1 firmware
const (
	RequestBeginRead        uint8 = 0x1
	RequestIntegrationTime  uint8 = 0x2
	RequestPixelLineControl uint8 = 0x3
	RequestMovingAvgDepth   uint8 = 0x4
	RequestTotalAvgDepth    uint8 = 0x5
)

// RequestType packs a bmRequestType byte.
func RequestType(recipient, typ, direction uint8) uint8 {
	return recipient | typ<<requestTypeOffset | direction<<requestDirectionOffset
}

var (
	vendorWrite = RequestType(RecipientDevice, TypeVendor, DirectionHostToDevice)
	vendorRead  = RequestType(RecipientDevice, TypeVendor, DirectionDeviceToHost)
)
