// Package bomc1 drives the BOMC1 USB spectrometer module.
//
// The device speaks a small vendor protocol over control transfers on
// endpoint zero and delivers one sensor readout per trigger on its bulk IN
// endpoint. A Device owns the bound Transport and the acquisition settings
// last written to the module:
//
//	dev, err := bomc1.DiscoverFirst()
//	if err != nil {
//		return err
//	}
//	defer dev.Close()
//
//	frame, err := dev.Acquire(bomc1.LineControl{DarkCurrent: true})
//
// Frames are immutable 3648-sample readouts. The spectrum package turns them
// into averaged, smoothed and dark-corrected spectra.
package bomc1

import "time"

const (
	VendorID  uint16 = 0xF005
	ProductID uint16 = 0x0001

	// DataCount is the number of pixels in one sensor readout.
	DataCount = 3648
	// DataSize is the bulk payload size of one readout.
	DataSize = DataCount * 2

	DefaultTimeout = 2000 * time.Millisecond
)

// Version returns the version of the go-bomc1 library
func Version() string {
	return "1.0.0"
}
