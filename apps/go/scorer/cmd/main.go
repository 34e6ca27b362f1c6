package main

import (
	"os"

	"roofscore/apps/go/scorer/cli"
)

func main() {
	if err := cli.RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
