package bomc1

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Frame is one sensor readout of DataCount pixel counts. The zero Frame is
// empty and is what failed acquisitions return.
type Frame struct {
	samples []uint16
}

// NewFrame copies samples into a Frame. It fails unless exactly DataCount
// samples are given.
func NewFrame(samples []uint16) (Frame, error) {
	if len(samples) != DataCount {
		return Frame{}, fmt.Errorf("%w: %d samples, want %d", ErrInvalidFrame, len(samples), DataCount)
	}
	s := make([]uint16, DataCount)
	copy(s, samples)
	return Frame{samples: s}, nil
}

// DecodeFrame decodes a DataSize byte bulk payload of little-endian
// 16-bit samples.
func DecodeFrame(payload []byte) (Frame, error) {
	if len(payload) != DataSize {
		return Frame{}, fmt.Errorf("%w: %d byte payload, want %d", ErrInvalidFrame, len(payload), DataSize)
	}
	s := make([]uint16, DataCount)
	for i := range s {
		s[i] = binary.LittleEndian.Uint16(payload[i*2:])
	}
	return Frame{samples: s}, nil
}

func (f Frame) Len() int {
	return len(f.samples)
}

// At returns sample i.
func (f Frame) At(i int) uint16 {
	return f.samples[i]
}

// Samples returns a copy of the pixel counts.
func (f Frame) Samples() []uint16 {
	s := make([]uint16, len(f.samples))
	copy(s, f.samples)
	return s
}

func (f Frame) Float64s() []float64 {
	out := make([]float64, len(f.samples))
	for i, v := range f.samples {
		out[i] = float64(v)
	}
	return out
}

// Encode returns the wire form of the frame.
func (f Frame) Encode() []byte {
	buf := make([]byte, len(f.samples)*2)
	for i, v := range f.samples {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}

// MarshalJSON encodes the frame as an array of integers.
func (f Frame) MarshalJSON() ([]byte, error) {
	vals := make([]int, len(f.samples))
	for i, v := range f.samples {
		vals[i] = int(v)
	}
	return json.Marshal(vals)
}

func (f *Frame) UnmarshalJSON(data []byte) error {
	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	if len(vals) != DataCount {
		return fmt.Errorf("%w: %d samples, want %d", ErrInvalidFrame, len(vals), DataCount)
	}
	s := make([]uint16, DataCount)
	for i, v := range vals {
		if v < 0 || v > 0xFFFF {
			return fmt.Errorf("%w: sample %d out of range: %d", ErrInvalidFrame, i, v)
		}
		s[i] = uint16(v)
	}
	f.samples = s
	return nil
}
