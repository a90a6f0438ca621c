// Command authctl hashes passwords and issues or inspects tokens with the service configuration.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(loadConfig).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
