// Command cli runs ledger operations against the configured store from the
// shell. Every command prints the operation response as JSON.
package main

import (
	"os"

	"github.com/amirasaad/ledgercore/infra/initializer"
	"github.com/amirasaad/ledgercore/pkg/app"
	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/fatih/color"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		return
	}
	cfg, err := config.Load(".env")
	if err != nil {
		color.Red("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		color.Red("Failed to initialize dependencies: %v", err)
		os.Exit(1)
	}
	a, err := app.New(deps)
	if err != nil {
		cleanup()
		color.Red("Failed to build application: %v", err)
		os.Exit(1)
	}
	code := newCLI(a, os.Stdout).run(os.Args[1:])
	cleanup()
	os.Exit(code)
}
