// Command cpql compiles CPQL entity queries to parameterized SQL.
package main

import (
	"os"

	"github.com/roach88/cpql/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
