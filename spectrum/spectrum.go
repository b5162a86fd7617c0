// Package spectrum reduces BOMC1 frames to a smoothed, dark-corrected
// intensity spectrum. Every function is pure and safe for concurrent use.
package spectrum

import (
	"errors"
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/kevmo314/go-bomc1"
)

// DefaultWindow is the moving-average window the device software uses.
const DefaultWindow = 10

var (
	ErrEmptyInput          = errors.New("spectrum: no frames")
	ErrLengthMismatch      = errors.New("spectrum: length mismatch")
	ErrInsufficientSamples = errors.New("spectrum: fewer samples than window")
	ErrInvalidWindow       = errors.New("spectrum: window must be at least 1")
)

// MeanAcrossFrames returns the per-pixel mean of frames.
func MeanAcrossFrames(frames []bomc1.Frame) ([]float64, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyInput
	}

	n := frames[0].Len()
	for i, f := range frames {
		if f.Len() != bomc1.DataCount {
			return nil, fmt.Errorf("%w: frame %d has %d samples, want %d", ErrLengthMismatch, i, f.Len(), bomc1.DataCount)
		}
	}

	sum := make([]float64, n)
	for _, f := range frames {
		vecmath.AddBlockInPlace(sum, f.Float64s())
	}

	count := float64(len(frames))
	for i := range sum {
		sum[i] /= count
	}
	return sum, nil
}

// MovingAverage smooths samples with a trailing window. Output j is the
// mean of samples[j:j+window], so the result has len(samples)-window+1
// values and is shifted window-1 pixels relative to the input.
func MovingAverage(samples []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	if len(samples) < window {
		return nil, fmt.Errorf("%w: %d samples, window %d", ErrInsufficientSamples, len(samples), window)
	}

	// prefix[k] is the sum of the first k samples
	prefix := make([]float64, len(samples)+1)
	for i, v := range samples {
		prefix[i+1] = prefix[i] + v
	}

	n := len(samples) - window + 1
	lead := make([]float64, n)
	vecmath.ScaleBlock(lead, prefix[:n], -1)

	out := make([]float64, n)
	vecmath.AddBlock(out, prefix[window:window+n], lead)

	w := float64(window)
	for i := range out {
		out[i] /= w
	}
	return out, nil
}

// FullPipeline averages frames and smooths the result with DefaultWindow.
func FullPipeline(frames []bomc1.Frame) ([]float64, error) {
	return run(frames, DefaultWindow)
}

// DarkCurrentCorrect subtracts the FullPipeline baseline of dark from spec.
func DarkCurrentCorrect(spec []float64, dark []bomc1.Frame) ([]float64, error) {
	return subtractBaseline(spec, dark, DefaultWindow)
}

func run(frames []bomc1.Frame, window int) ([]float64, error) {
	mean, err := MeanAcrossFrames(frames)
	if err != nil {
		return nil, err
	}
	return MovingAverage(mean, window)
}

func subtractBaseline(spec []float64, dark []bomc1.Frame, window int) ([]float64, error) {
	baseline, err := run(dark, window)
	if err != nil {
		return nil, fmt.Errorf("dark baseline: %w", err)
	}
	if len(baseline) != len(spec) {
		return nil, fmt.Errorf("%w: spectrum has %d values, baseline %d", ErrLengthMismatch, len(spec), len(baseline))
	}

	vecmath.ScaleBlockInPlace(baseline, -1)
	out := make([]float64, len(spec))
	vecmath.AddBlock(out, spec, baseline)
	return out, nil
}
