package main

import (
	"github.com/bundlekit/bundlekit/internal/interfaces/cli"
)

// Overridden by ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Execute(version, commit, date)
}
