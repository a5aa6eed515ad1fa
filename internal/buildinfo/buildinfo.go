// Package buildinfo exposes version metadata stamped at build time.
package buildinfo

import (
	"fmt"
	"io"
)

// Set via ldflags, e.g.
//
//	go build -ldflags "-X .../internal/buildinfo.Version=v1.2.3"
var (
	Version = "N/A"
	Date    = "N/A"
	Commit  = "N/A"
)

// PrintBuildData writes the build metadata to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", Date)
	fmt.Fprintf(w, "Build commit: %s\n", Commit)
}
