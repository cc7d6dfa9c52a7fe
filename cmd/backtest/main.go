package main

import (
	"fmt"
	"os"

	"github.com/eddiefleurent/schrute_bucks/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
