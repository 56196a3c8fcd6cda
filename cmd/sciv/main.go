package main

import (
	"fmt"
	"os"

	"sciv/internal/errors"
	"sciv/internal/log"
)

var version = "dev"

func main() {
	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	log.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for bad configuration or bindings, 3 for a path that
// cannot be opened and 1 for everything else.
func exitCode(err error) int {
	switch errors.KindOf(err) {
	case errors.InvalidConfig, errors.ConfigNotFound, errors.InvalidBinding, errors.UnknownAction:
		return 2
	case errors.FileNotFound, errors.FileAccessDenied, errors.InvalidPath:
		return 3
	default:
		return 1
	}
}
