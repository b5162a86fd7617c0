package bomc1

// Transport carries vendor requests and bulk reads to one claimed device.
// All control transfers use recipient=device, type=vendor with wValue and
// wIndex of zero.
type Transport interface {
	// ControlWrite sends payload (possibly empty) with a vendor OUT request.
	ControlWrite(request uint8, payload []byte) error
	// ControlRead reads exactly length bytes with a vendor IN request.
	ControlRead(request uint8, length int) ([]byte, error)
	// BulkRead reads exactly length bytes from endpoint.
	BulkRead(endpoint uint8, length int) ([]byte, error)
	// Endpoints lists the endpoints of the active configuration's first
	// interface.
	Endpoints() ([]Endpoint, error)
	Close() error
}

// Endpoint describes one endpoint of the bound interface.
type Endpoint struct {
	Address       uint8
	Attributes    uint8
	MaxPacketSize uint16
}

func (e Endpoint) IsInput() bool {
	return e.Address&0x80 != 0
}

// FindEndpoint returns the first endpoint accepted by match.
func FindEndpoint(eps []Endpoint, match func(Endpoint) bool) (Endpoint, bool) {
	for _, ep := range eps {
		if match(ep) {
			return ep, true
		}
	}
	return Endpoint{}, false
}
