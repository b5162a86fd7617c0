package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kevmo314/go-bomc1"
	"github.com/kevmo314/go-bomc1/framestore"
	"github.com/kevmo314/go-bomc1/internal/config"
	"github.com/kevmo314/go-bomc1/internal/monitor"
	"github.com/kevmo314/go-bomc1/publish"
	"github.com/kevmo314/go-bomc1/spectrum"
	"github.com/sirupsen/logrus"
)

type fetchOptions struct {
	count       int
	raw         int
	lineControl bomc1.LineControl
	window      int
	dark        []bomc1.Frame
}

type fetchResult struct {
	frames   []bomc1.Frame
	raw      []bomc1.Frame
	spectrum spectrum.Spectrum
}

// all returns processed frames followed by raw ones, the order they are
// saved in.
func (r *fetchResult) all() []bomc1.Frame {
	out := make([]bomc1.Frame, 0, len(r.frames)+len(r.raw))
	out = append(out, r.frames...)
	return append(out, r.raw...)
}

// fetch acquires the processed batch, then the raw batch with every
// on-device stage off, and reduces the processed batch to a spectrum.
func fetch(dev *bomc1.Device, opts fetchOptions) (*fetchResult, error) {
	frames, err := dev.AcquireBatch(opts.count, opts.lineControl)
	if err != nil {
		return nil, err
	}

	res := &fetchResult{frames: frames}
	if opts.raw > 0 {
		res.raw, err = dev.AcquireBatch(opts.raw, bomc1.LineControl{})
		if err != nil {
			return nil, fmt.Errorf("raw capture: %w", err)
		}
	}

	p := spectrum.Pipeline{Window: opts.window, Dark: opts.dark}
	res.spectrum, err = p.Run(frames)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func runFetch(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	count := fs.Int("n", 1, "Number of frames to fetch")
	save := fs.Bool("s", false, "Save frames (requires -o)")
	out := fs.String("o", "", "Write fetched frames to this JSON file")
	noDC := fs.Bool("no-dc", false, "Disable on-device dark current subtraction")
	noMovAvg := fs.Bool("no-movavg", false, "Disable on-device moving average")
	noTotAvg := fs.Bool("no-totavg", false, "Disable on-device total average")
	withRaw := fs.Int("with-raw", 0, "Also fetch this many frames with every on-device stage off")
	window := fs.Int("window", spectrum.DefaultWindow, "Moving-average window")
	darkPath := fs.String("dark", "", "Dark reference frame set (JSON) to subtract")
	specPath := fs.String("spectrum", "", "Write the processed spectrum to this JSON file")
	intTime := fs.Uint("integration-time", 0, "Set the integration time (µs) before fetching")
	doPublish := fs.Bool("publish", false, "Publish the spectrum to the configured sinks")
	fs.Parse(args)

	cfg, log, err := setup(*configPath)
	if err != nil {
		return err
	}
	applyFetchFlags(cfg, flagsSet(fs), *count, *withRaw, *window, *darkPath, !*noDC, !*noMovAvg, !*noTotAvg)

	if *save && *out == "" {
		return errors.New("-s requires -o")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := fetchOptions{
		count:  cfg.Acquisition.Count,
		raw:    cfg.Acquisition.RawCount,
		window: cfg.Acquisition.Window,
		lineControl: bomc1.LineControl{
			DarkCurrent:   cfg.Acquisition.DarkCurrent,
			MovingAverage: cfg.Acquisition.MovingAverage,
			TotalAverage:  cfg.Acquisition.TotalAverage,
		},
	}
	if cfg.Acquisition.DarkReference != "" {
		opts.dark, err = loadDark(cfg.Acquisition.DarkReference)
		if err != nil {
			return err
		}
		log.WithField("frames", len(opts.dark)).Info("dark reference loaded")
	}

	if cfg.Monitor.Enabled {
		m := monitor.NewMonitor(log)
		m.StartMetricsServer(cfg.Monitor.MetricsPort)
		defer m.Close()
	}

	dev, err := openDevice(cfg, log)
	if err != nil {
		return err
	}
	defer dev.Close()

	if *intTime > 0 {
		if err := dev.Set(bomc1.FieldIntegrationTime, uint32(*intTime)); err != nil {
			return err
		}
	}
	if d := cfg.Acquisition.MovingAvgDepth; d > 0 {
		if err := dev.SetMovingAvgDepth(d); err != nil {
			return err
		}
	}
	if d := cfg.Acquisition.TotalAvgDepth; d > 0 {
		if err := dev.SetTotalAvgDepth(d); err != nil {
			return err
		}
	}

	start := time.Now()
	res, err := fetch(dev, opts)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"frames":  len(res.frames),
		"raw":     len(res.raw),
		"pixels":  len(res.spectrum.Values),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("fetch complete")

	if *out != "" {
		if err := framestore.SaveFile(*out, res.all()); err != nil {
			return fmt.Errorf("failed to save frames: %w", err)
		}
		log.WithField("path", *out).Info("frames saved")
	}

	if *specPath != "" {
		if err := writeSpectrum(*specPath, res.spectrum); err != nil {
			return err
		}
	}

	if *doPublish {
		rec := &publish.Record{
			DeviceID:    dev.ID(),
			Timestamp:   time.Now(),
			Frames:      len(res.frames),
			LineControl: opts.lineControl.Mask(),
			Spectrum:    res.spectrum,
			Raw:         res.raw,
		}
		if us, err := dev.IntegrationTime(); err == nil {
			rec.IntegrationTime = us
		} else {
			log.WithError(err).Warn("failed to read integration time")
		}
		if err := publishRecord(cfg, log, rec); err != nil {
			return err
		}
	}

	return nil
}

// loadDark reads a dark reference set. A file holding no frames is an
// error rather than a request to skip correction.
func loadDark(path string) ([]bomc1.Frame, error) {
	dark, err := framestore.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load dark reference: %w", err)
	}
	if len(dark) == 0 {
		return nil, fmt.Errorf("dark reference %s: %w", path, spectrum.ErrEmptyInput)
	}
	return dark, nil
}

// applyFetchFlags lets explicitly given flags override the file.
func applyFetchFlags(cfg *config.Config, set map[string]bool, count, raw, window int, dark string, dc, movAvg, totAvg bool) {
	a := &cfg.Acquisition
	if set["n"] {
		a.Count = count
	}
	if set["with-raw"] {
		a.RawCount = raw
	}
	if set["window"] {
		a.Window = window
	}
	if set["dark"] {
		a.DarkReference = dark
	}
	if set["no-dc"] {
		a.DarkCurrent = dc
	}
	if set["no-movavg"] {
		a.MovingAverage = movAvg
	}
	if set["no-totavg"] {
		a.TotalAverage = totAvg
	}
}

func writeSpectrum(path string, s spectrum.Spectrum) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write spectrum: %w", err)
	}
	return nil
}

func publishRecord(cfg *config.Config, log logrus.FieldLogger, rec *publish.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var sinks []publish.Sink
	if cfg.Redis.Enabled {
		s, err := publish.NewRedisSink(ctx, cfg.Redis, log)
		if err != nil {
			return err
		}
		sinks = append(sinks, s)
	}
	if cfg.MQTT.Enabled {
		s, err := publish.NewMQTTSink(cfg.MQTT, log)
		if err != nil {
			for _, s := range sinks {
				s.Close()
			}
			return err
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 0 {
		return errors.New("-publish given but no sink is enabled in the configuration")
	}

	f := publish.NewFanout(log, sinks...)
	defer f.Close()
	return f.Publish(ctx, rec)
}
