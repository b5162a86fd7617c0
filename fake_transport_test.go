package bomc1

import (
	"errors"
	"fmt"
	"sync"
)

type call struct {
	op      string
	request uint8
	payload []byte
	length  int
}

func (c call) String() string {
	return fmt.Sprintf("%s(0x%02x, %x, %d)", c.op, c.request, c.payload, c.length)
}

// fakeTransport records every call and serves canned responses.
type fakeTransport struct {
	mu        sync.Mutex
	onBulk    func()
	calls     []call
	endpoints []Endpoint
	epErr     error
	reads     map[uint8][]byte
	bulk      []byte
	bulkErr   error
	writeErr  map[uint8]error
	closed    int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		endpoints: []Endpoint{
			{Address: 0x01, Attributes: 0x02, MaxPacketSize: 512},
			{Address: 0x81, Attributes: 0x02, MaxPacketSize: 512},
		},
		reads:    make(map[uint8][]byte),
		writeErr: make(map[uint8]error),
		bulk:     make([]byte, DataSize),
	}
}

func (f *fakeTransport) ControlWrite(request uint8, payload []byte) error {
	p := append([]byte(nil), payload...)
	f.record(call{op: "write", request: request, payload: p})
	return f.writeErr[request]
}

func (f *fakeTransport) ControlRead(request uint8, length int) ([]byte, error) {
	f.record(call{op: "read", request: request, length: length})
	data, ok := f.reads[request]
	if !ok {
		return nil, &TransportError{Op: "control_read", Request: request, Kind: KindStall, Err: errors.New("stalled")}
	}
	return data, nil
}

func (f *fakeTransport) BulkRead(endpoint uint8, length int) ([]byte, error) {
	f.record(call{op: "bulk", request: endpoint, length: length})
	if f.onBulk != nil {
		f.onBulk()
	}
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	return f.bulk, nil
}

func (f *fakeTransport) Endpoints() ([]Endpoint, error) {
	return f.endpoints, f.epErr
}

func (f *fakeTransport) Close() error {
	f.closed++
	return nil
}

func (f *fakeTransport) record(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeTransport) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}
