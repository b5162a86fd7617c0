package bomc1

import (
	"fmt"
	"math"
	"strings"
)

// Field names a device setting reachable through Get and Set.
type Field int

const (
	FieldIntegrationTime Field = iota
	FieldMovingAvgDepth
	FieldTotalAvgDepth
)

type fieldAccessor struct {
	name string
	max  uint32
	get  func(*Device) (uint32, error)
	set  func(*Device, uint32) error
}

var fields = map[Field]fieldAccessor{
	FieldIntegrationTime: {
		name: "integration_time",
		max:  math.MaxUint32,
		get:  (*Device).IntegrationTime,
		set:  (*Device).SetIntegrationTime,
	},
	FieldMovingAvgDepth: {
		name: "moving_avg_depth",
		max:  math.MaxUint8,
		get: func(d *Device) (uint32, error) {
			v, err := d.MovingAvgDepth()
			return uint32(v), err
		},
		set: func(d *Device, v uint32) error { return d.SetMovingAvgDepth(uint8(v)) },
	},
	FieldTotalAvgDepth: {
		name: "total_avg_depth",
		max:  math.MaxUint8,
		get: func(d *Device) (uint32, error) {
			v, err := d.TotalAvgDepth()
			return uint32(v), err
		},
		set: func(d *Device, v uint32) error { return d.SetTotalAvgDepth(uint8(v)) },
	},
}

// Fields lists every field in declaration order.
func Fields() []Field {
	return []Field{FieldIntegrationTime, FieldMovingAvgDepth, FieldTotalAvgDepth}
}

func (f Field) String() string {
	if a, ok := fields[f]; ok {
		return a.name
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField maps a field name to its Field. Dashes and underscores are
// interchangeable.
func ParseField(name string) (Field, error) {
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")
	for _, f := range Fields() {
		if fields[f].name == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Get reads field f from the device.
func (d *Device) Get(f Field) (uint32, error) {
	a, ok := fields[f]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownField, f)
	}
	return a.get(d)
}

// Set writes v to field f, rejecting values wider than the field.
func (d *Device) Set(f Field, v uint32) error {
	a, ok := fields[f]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownField, f)
	}
	if v > a.max {
		return fmt.Errorf("%w: %s accepts 0..%d, got %d", ErrValueOutOfRange, a.name, a.max, v)
	}
	return a.set(d, v)
}
