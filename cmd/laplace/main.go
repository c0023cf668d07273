// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     main
// Description: Entry point of the laplace command line tool
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package main

import (
	"os"

	"github.com/msto63/laplace/cmd/laplace/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
