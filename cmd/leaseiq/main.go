// Package main is the entry point for the LeaseIQ terminal client.
package main

import (
	"fmt"
	"os"

	"github.com/leaseiq/leaseiq/cmd/leaseiq/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
