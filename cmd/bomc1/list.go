package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kevmo314/go-bomc1"
)

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Parse(args)

	if os.Getuid() != 0 {
		fmt.Fprintln(os.Stderr, "Warning: opening USB devices may require root privileges")
	}

	devices, err := bomc1.Discover()
	if err != nil {
		return err
	}

	fmt.Printf("Found %d BOMC1 module(s):\n", len(devices))
	for i, d := range devices {
		fmt.Printf("\nDevice #%d:\n", i+1)
		fmt.Printf("  ID:           %s\n", d.ID())
		fmt.Printf("  Path:         %s\n", d.Path)
		fmt.Printf("  VID:PID:      %04x:%04x\n", bomc1.VendorID, bomc1.ProductID)
		if d.Manufacturer != "" {
			fmt.Printf("  Manufacturer: %s\n", d.Manufacturer)
		}
		if d.Product != "" {
			fmt.Printf("  Product:      %s\n", d.Product)
		}
		if d.Serial != "" {
			fmt.Printf("  Serial:       %s\n", d.Serial)
		}
	}
	return nil
}
