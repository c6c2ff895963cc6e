// Command islac is the command-line driver for the gokando-isla solver: it
// runs one of the built-in constraint scenarios (internal/scenarios) and
// prints the derivation trees it yields.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
