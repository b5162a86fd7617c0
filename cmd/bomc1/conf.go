package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kevmo314/go-bomc1"
)

type confArgs struct {
	field  bomc1.Field
	value  uint32
	hasSet bool
}

// parseConfArgs accepts flags on either side of the field name:
// conf [-config f] <field> [-set v].
func parseConfArgs(args []string) (confArgs, string, error) {
	fs := flag.NewFlagSet("conf", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "YAML configuration file")
	set := fs.String("set", "", "Value to write")

	if err := fs.Parse(args); err != nil {
		return confArgs{}, "", err
	}
	if fs.NArg() < 1 {
		return confArgs{}, "", errors.New("usage: bomc1 conf [-config file] <field> [-set value]")
	}
	name := fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return confArgs{}, "", err
	}
	if fs.NArg() > 0 {
		return confArgs{}, "", fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	field, err := bomc1.ParseField(name)
	if err != nil {
		return confArgs{}, "", err
	}

	ca := confArgs{field: field}
	if *set != "" {
		v, err := strconv.ParseUint(*set, 0, 32)
		if err != nil {
			return confArgs{}, "", fmt.Errorf("invalid value %q: %w", *set, err)
		}
		ca.value = uint32(v)
		ca.hasSet = true
	}
	return ca, *configPath, nil
}

// applyConf writes or reads the field and returns what to print.
func applyConf(dev *bomc1.Device, ca confArgs) (string, error) {
	if ca.hasSet {
		return "", dev.Set(ca.field, ca.value)
	}
	v, err := dev.Get(ca.field)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(v), 10), nil
}

func runConf(args []string) error {
	ca, configPath, err := parseConfArgs(args)
	if err != nil {
		return err
	}

	cfg, log, err := setup(configPath)
	if err != nil {
		return err
	}

	dev, err := openDevice(cfg, log)
	if err != nil {
		return err
	}
	defer dev.Close()

	out, err := applyConf(dev, ca)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintln(os.Stdout, out)
	}
	return nil
}
