// Command agentcases runs agent and workflow demonstrations.
package main

import (
	"os"

	"github.com/smallnest/agentcases/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, cli.Deps{}))
}
