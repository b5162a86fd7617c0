package spectrum

import "github.com/kevmo314/go-bomc1"

// Spectrum is a processed readout. Values[0] corresponds to sensor pixel
// Offset.
type Spectrum struct {
	Values []float64 `json:"values"`
	Offset int       `json:"offset"`
}

// Pixel returns the sensor pixel index of Values[i].
func (s Spectrum) Pixel(i int) int {
	return s.Offset + i
}

// Pipeline averages, smooths and optionally dark-corrects a frame set.
// The zero Pipeline uses DefaultWindow and no dark reference.
type Pipeline struct {
	Window int
	Dark   []bomc1.Frame
}

func (p Pipeline) window() int {
	if p.Window == 0 {
		return DefaultWindow
	}
	return p.Window
}

// Run processes frames. The dark reference, when set, is reduced with the
// same window before it is subtracted.
func (p Pipeline) Run(frames []bomc1.Frame) (Spectrum, error) {
	w := p.window()

	values, err := run(frames, w)
	if err != nil {
		return Spectrum{}, err
	}

	if len(p.Dark) > 0 {
		values, err = subtractBaseline(values, p.Dark, w)
		if err != nil {
			return Spectrum{}, err
		}
	}

	return Spectrum{Values: values, Offset: w - 1}, nil
}
