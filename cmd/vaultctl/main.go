// Command vaultctl previews vault arithmetic and replays scenarios.
//
// Usage:
//
//	vaultctl simulate ./scenarios/quickstart.yaml
//	vaultctl quote --amount 10000 --rate 50 --fee-bps 100
package main

import (
	"fmt"
	"os"

	"github.com/xraph/vault/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "vaultctl: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
