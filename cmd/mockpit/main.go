// mockpit - a mock HTTP/HTTPS server with live-swappable routes.
package main

import (
	"github.com/mockpit/mockpit/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
