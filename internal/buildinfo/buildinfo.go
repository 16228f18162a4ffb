// Package buildinfo exposes version information injected at build time, e.g.
//
//	go build -ldflags "-X '<module>/internal/buildinfo.BuildVersion=v1.0.0' \
//	                   -X '<module>/internal/buildinfo.BuildDate=2026-08-22'"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	BuildVersion = "N/A"
	BuildDate    = "N/A"
	BuildCommit  = "N/A"
)

// PrintBuildData writes the build version, date, and commit to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", BuildVersion)
	fmt.Fprintf(w, "Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "Build commit: %s\n", BuildCommit)
}
