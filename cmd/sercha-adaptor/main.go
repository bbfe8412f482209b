// Command sercha-adaptor publishes a directory tree to a search appliance.
package main

import (
	"os"

	"github.com/custodia-labs/sercha-adaptor/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
