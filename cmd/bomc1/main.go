// Command bomc1 acquires, processes and publishes spectra from a BOMC1
// module.
//
//	bomc1 fetch -n 10 -o frames.json -spectrum spectrum.json
//	bomc1 conf integration_time -set 20000
//	bomc1 list
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kevmo314/go-bomc1"
	"github.com/kevmo314/go-bomc1/internal/config"
	"github.com/kevmo314/go-bomc1/internal/logging"
	"github.com/sirupsen/logrus"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: bomc1 <command> [flags]

commands:
  fetch     acquire frames and compute a spectrum
  conf      read or write a device setting
  list      list attached modules
  version   print the library version

Run 'bomc1 <command> -h' for command flags.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "fetch":
		err = runFetch(os.Args[2:])
	case "conf":
		err = runConf(os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	case "version", "-version", "--version":
		fmt.Printf("bomc1 (go-bomc1) %s\n", bomc1.Version())
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "bomc1: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "bomc1: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig returns the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(path)
}

func setup(path string) (*config.Config, *logrus.Logger, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.Log), nil
}

func openDevice(cfg *config.Config, log logrus.FieldLogger) (*bomc1.Device, error) {
	opts := []bomc1.Option{
		bomc1.WithLogger(log),
		bomc1.WithTransferTimeout(cfg.Device.Timeout),
	}
	if cfg.Device.Path != "" {
		return bomc1.OpenPath(cfg.Device.Path, opts...)
	}
	return bomc1.DiscoverFirst(opts...)
}

// flagsSet returns the names of the flags given on the command line.
func flagsSet(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}
