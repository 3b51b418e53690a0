// Command secidx builds, inspects, and scans disk-backed B+ tree secondary
// indexes over a fixed-width attribute of a relation file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "secidx:", err)
		os.Exit(1)
	}
}
