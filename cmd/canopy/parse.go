package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/xy-planning-network/canopy/template"
)

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse templates and report syntax errors",
		Long: `Parse each template file, reporting syntax errors as file:line:col.

Parsing does not bind names, so a template that parses can still fail
to compile against the values and routes of an app.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
		},
	}
}

func runParse(out, errOut io.Writer, files []string) error {
	var failed int
	for _, file := range files {
		text, err := os.ReadFile(file)
		if err != nil {
			failure(errOut, "%s", err)
			failed++
			continue
		}

		tree, err := template.Parse(template.Source{ID: file, Text: string(text)})
		if err != nil {
			failure(errOut, "%s", err)
			failed++
			continue
		}

		if len(tree.Nodes) == 0 {
			warn(out, "%s is empty", file)
			continue
		}

		success(out, "%s", file)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed to parse", failed, len(files))
	}

	return nil
}
