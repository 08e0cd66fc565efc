// Command jshow resolves the token-signing configuration and uses it to
// issue and verify tokens, print its provenance, or serve health probes.
package main

import (
	"fmt"
	"os"

	"github.com/lzy/jshow/cmd/jshow/internal/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
