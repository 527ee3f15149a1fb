// The main package for the hncrawl executable.
package main

import (
	"github.com/hncrawl/hncrawl/cmd"
)

func main() {
	cmd.Execute()
}
