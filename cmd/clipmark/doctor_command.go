package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipmark/internal/deps"
	"clipmark/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			checks := preflight.RunAll(cmd.Context(), cfg)
			tools := preflight.CheckSystemDeps(cmd.Context(), cfg)
			failed := preflight.Failed(checks)
			missing := deps.MissingRequired(tools)

			if ctx.JSONMode() {
				if err := writeJSON(cmd, map[string]any{
					"config":       ctx.configPath,
					"checks":       checks,
					"dependencies": tools,
				}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				printSection(out, "Dependencies", colorize)
				for _, st := range tools {
					fmt.Fprintln(out, renderStatusLine(st.Name, dependencyKind(st), dependencyMessage(st), colorize))
				}
				fmt.Fprintln(out)
				printSection(out, "Environment", colorize)
				for _, res := range checks {
					kind := statusOK
					if !res.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(res.Name, kind, res.Detail, colorize))
				}
			}

			if n := len(failed) + len(missing); n > 0 {
				return fmt.Errorf("doctor found %d problem(s)", n)
			}
			return nil
		},
	}
}

func dependencyMessage(st deps.Status) string {
	if !st.Available {
		if st.Detail != "" {
			return st.Detail
		}
		return st.Command + " not found"
	}
	if st.Version != "" {
		return st.Version
	}
	return st.Path
}
