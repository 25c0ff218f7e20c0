// Package main implements the entry point for the scry-adaptive server,
// which runs adaptive diagnostic tests, schedules spaced-repetition reviews
// and builds daily study plans.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
