package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"clipmark/internal/services"
)

// jsonError is the --json form of a failed command. It goes to stderr so a
// partially written stdout document stays intact.
type jsonError struct {
	Error    string `json:"error"`
	Kind     string `json:"kind,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	return encodeJSON(cmd.OutOrStdout(), v)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportError prints a command failure, as a jsonError when asJSON is set.
func reportError(w io.Writer, err error, asJSON bool) {
	if !asJSON {
		fmt.Fprintln(w, err)
		return
	}
	payload := jsonError{Error: err.Error(), Kind: services.Kind(err), ExitCode: services.ExitCode(err)}
	if encErr := encodeJSON(w, payload); encErr != nil {
		fmt.Fprintln(w, err)
	}
}
