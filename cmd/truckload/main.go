// TruckLoad: interactive load planning engine, headless CLI
//
// Imports optimizer results into a local SQLite database, replays scripted
// edits through the placement engine, reports load statistics and exports
// load plans.
//
// Build:
//   go build -o truckload ./cmd/truckload
//
// Cross-compile:
//   GOOS=windows GOARCH=amd64 go build -o truckload.exe ./cmd/truckload
//   GOOS=darwin  GOARCH=arm64 go build -o truckload-darwin ./cmd/truckload

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
