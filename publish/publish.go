// Package publish hands processed spectra to external consumers.
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/kevmo314/go-bomc1"
	"github.com/kevmo314/go-bomc1/internal/monitor"
	"github.com/kevmo314/go-bomc1/spectrum"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Record is the message published for one processed acquisition batch.
type Record struct {
	DeviceID        string            `json:"device_id"`
	Timestamp       time.Time         `json:"timestamp"`
	Frames          int               `json:"frames"`
	IntegrationTime uint32            `json:"integration_time_us,omitempty"`
	LineControl     uint8             `json:"line_control"`
	Spectrum        spectrum.Spectrum `json:"spectrum"`
	Raw             []bomc1.Frame     `json:"raw,omitempty"`
}

// Sink delivers records to one destination.
type Sink interface {
	Name() string
	Publish(ctx context.Context, rec *Record) error
	Close() error
}

// Fanout publishes every record to all of its sinks concurrently.
type Fanout struct {
	sinks []Sink
	log   logrus.FieldLogger
}

func NewFanout(log logrus.FieldLogger, sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, log: log}
}

// Len returns the number of sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Publish sends rec to every sink and returns the first failure. The
// context passed to the remaining sinks is cancelled once one fails.
func (f *Fanout) Publish(ctx context.Context, rec *Record) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range f.sinks {
		g.Go(func() error {
			if err := s.Publish(ctx, rec); err != nil {
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
			monitor.SpectraPublished.WithLabelValues(s.Name()).Inc()
			f.log.WithField("sink", s.Name()).Debug("spectrum published")
			return nil
		})
	}
	return g.Wait()
}

func (f *Fanout) Close() error {
	var first error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			f.log.WithError(err).WithField("sink", s.Name()).Warn("failed to close sink")
			if first == nil {
				first = err
			}
		}
	}
	return first
}
