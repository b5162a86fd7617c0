package bomc1

// Pixel line control bits
const (
	LineDarkCurrent   uint8 = 1 << 0
	LineMovingAverage uint8 = 1 << 1
	LineTotalAverage  uint8 = 1 << 2
)

// LineControl selects the on-device processing applied to a readout.
type LineControl struct {
	DarkCurrent   bool
	MovingAverage bool
	TotalAverage  bool
}

// DefaultLineControl enables every on-device stage.
func DefaultLineControl() LineControl {
	return LineControl{DarkCurrent: true, MovingAverage: true, TotalAverage: true}
}

// Mask packs the flags into the byte written with RequestPixelLineControl.
func (lc LineControl) Mask() uint8 {
	var m uint8
	if lc.DarkCurrent {
		m |= LineDarkCurrent
	}
	if lc.MovingAverage {
		m |= LineMovingAverage
	}
	if lc.TotalAverage {
		m |= LineTotalAverage
	}
	return m
}

func LineControlFromMask(m uint8) LineControl {
	return LineControl{
		DarkCurrent:   m&LineDarkCurrent != 0,
		MovingAverage: m&LineMovingAverage != 0,
		TotalAverage:  m&LineTotalAverage != 0,
	}
}

// AcquisitionConfig is the host-side record of the settings last written
// to (or read from) the device.
type AcquisitionConfig struct {
	IntegrationTime uint32
	LineControl     LineControl
	MovingAvgDepth  uint8
	TotalAvgDepth   uint8
}
