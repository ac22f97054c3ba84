package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tracerx",
	Short: "Symbolic execution of Go code",
	Long: `Tracerx is a tool for symbolic execution of Go code.

It loads a package's SSA form, executes every SymbolicTest-prefixed
function along every feasible path, and emits a test case per terminal
state.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
