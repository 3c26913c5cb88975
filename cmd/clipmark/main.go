package main

import (
	"context"
	"errors"
	"os"

	"clipmark/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			asJSON, _ := cmd.PersistentFlags().GetBool("json")
			reportError(os.Stderr, err, asJSON)
		}
		os.Exit(services.ExitCode(err))
	}
}
