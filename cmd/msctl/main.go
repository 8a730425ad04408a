// Package main is the entry point for the msctl CLI client.
package main

import (
	"github.com/donaldgifford/market-suggest/cmd/msctl/cmd"
)

func main() {
	cmd.Execute()
}
