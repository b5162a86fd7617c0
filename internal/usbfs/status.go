package usbfs

// Status is the coarse outcome of a failed transfer.
type Status int

const (
	StatusIO Status = iota
	StatusTimeout
	StatusStall
	StatusNoDevice
)
