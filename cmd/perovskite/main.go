// Command perovskite normalizes perovskite compositions into JSON documents
// and serves the same operations over HTTP.
package main

import (
	"os"

	"github.com/turtacn/perovskite-json/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
