package main

import (
	"os"

	"github.com/typhoonworks/sifter/cmd/sifterctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
