// Package main is the entry point for market-suggest.
package main

import (
	"os"

	"github.com/donaldgifford/market-suggest/cmd/market-suggest/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
