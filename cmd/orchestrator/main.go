// Package main is the single-binary entrypoint for the preprocessing
// orchestrator.
package main

import "github.com/getpup/preprocessing-orchestrator/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
