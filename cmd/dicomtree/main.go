// Command dicomtree scans a directory of DICOM files and shows each study as
// an RT hierarchy: image series, structure sets, plans and doses.
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
