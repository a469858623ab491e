package main

import (
	"fmt"
	"os"

	"github.com/Rustixir/erlrust/cmd/erlrust/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
