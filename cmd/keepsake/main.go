// Command keepsake runs the memory lifecycle engine from the command line:
// ingest content, resolve consent decisions, retrieve memory context, and
// manage stored memories.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "keepsake",
		Short:         "Memory lifecycle and privacy-consent engine",
		Long:          "Keepsake scores, screens, and routes memories into storage tiers,\ngating sensitive content behind explicit user consent.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newIngestCmd(),
		newResolveCmd(),
		newRetrieveCmd(),
		newPendingCmd(),
		newDeleteCmd(),
		newClearCmd(),
		newSweepCmd(),
	)
	return root
}
