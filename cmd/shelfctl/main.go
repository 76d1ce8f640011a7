// Command shelfctl checks, queries and imports the spice shelf catalog.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "shelfctl:", err)
		os.Exit(1)
	}
}
