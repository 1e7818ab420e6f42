// uml-go edits UML class diagrams.
//
// Diagrams live in JSON or YAML files and can be edited from the command
// line, an interactive shell or any MCP client. Named saves are kept in an
// embedded save library.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/uml-go/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
