package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/storymesh/engine"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, engine.ErrAborted) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
