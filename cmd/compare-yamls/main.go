// compare-yamls merges two YAML documents according to configurable
// strategies and reports the differences it applied.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/psbr27/compare-yamls/pkg/diff"
	"github.com/psbr27/compare-yamls/pkg/merge"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error classes to distinct exit codes so callers can script
// against them.
func exitCode(err error) int {
	switch {
	case errors.Is(err, merge.ErrInvalidStrategy), errors.Is(err, diff.ErrUnknownFormat):
		return 2
	case errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrPermission):
		return 3
	case errors.Is(err, merge.ErrDepthExceeded):
		return 4
	default:
		return 1
	}
}
