// Command ragdesk is the entry point for the ragdesk retrieval-augmented chat
// backend. It provides a CLI interface (via Cobra) for serving the HTTP API
// and for managing documents and agents from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/ragdesk/cmd/ragdesk/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
