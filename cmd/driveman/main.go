// driveman - command-line file manager for Drive-style cloud storage.
package main

import (
	"os"

	"github.com/driveman/driveman/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
