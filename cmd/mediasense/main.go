// Command mediasense runs the MediaSense media library: an HTTP API, an MCP
// server on stdio, and maintenance commands for search and reprocessing.
package main

import (
	"fmt"
	"os"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
