package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", red.Sprint("Error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "canopy",
		Short: "Check canopy templates and route patterns",
		Long: `canopy checks the templates and route patterns of a canopy app
without running it.

  parse   parse templates, reporting file:line:col of syntax errors
  route   compile route patterns, reporting their signatures and ambiguities
  build   build a URL from a route pattern and arguments
  match   match a path against a route pattern, printing the extracted values`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		parseCmd(),
		routeCmd(),
		buildCmd(),
		matchCmd(),
		versionCmd(),
	)

	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green.Sprint("✓"), fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", yellow.Sprint("!"), fmt.Sprintf(format, args...))
}

// failure prints an error message.
func failure(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", red.Sprint("✗"), fmt.Sprintf(format, args...))
}
