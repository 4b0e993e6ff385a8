package main

import (
	"fmt"
	"os"

	"stock-analyzer-go/cmd/analyzer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
