// Command jirasearch turns short free-text input into JQL and searches Jira.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/jirasearch/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "jirasearch:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
