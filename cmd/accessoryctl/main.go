// accessoryctl is the offline companion to graylogic-zigbee: it resolves
// device identities against the capability catalog, validates device
// database files and mints API tokens.
package main

import (
	"os"
)

// Set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
