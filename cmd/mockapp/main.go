// mockapp CLI - runs and probes mock HTTP servers
package main

import (
	"os"

	"github.com/getmockd/mockapp/pkg/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:]))
}
