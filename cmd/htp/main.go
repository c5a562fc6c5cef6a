// cmd/htp/main.go
package main

import (
	"fmt"
	"os"

	"github.com/hashtheplanet/hashtheplanet/cmd/htp/commands"
)

func main() {
	if err := commands.NewCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
