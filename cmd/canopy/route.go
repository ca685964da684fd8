package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xy-planning-network/canopy/logger"
	"github.com/xy-planning-network/canopy/route"
)

func routeCmd() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "route <pattern>...",
		Short: "Compile route patterns and report their signatures",
		Long: `Compile each route pattern in order, as a router registering them would.

Patterns matching the same paths for the same method, neither more specific
than the other, are ambiguous;
the later one is reported.

Examples:
  canopy route /items/{id:int} /items/{slug}
  canopy route --method POST /items /items/{id:int}/notes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoute(cmd.OutOrStdout(), cmd.ErrOrStderr(), method, args)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", http.MethodGet, "HTTP method the patterns are registered for")

	return cmd
}

func runRoute(out, errOut io.Writer, method string, patterns []string) error {
	table := route.NewTable(route.WithLogger(logger.New(logger.WithLevel(logger.LogLevelError))))

	var failed int
	for _, raw := range patterns {
		rt, err := table.Add(raw, method, raw)
		if err != nil {
			failure(errOut, "%s", err)
			failed++
			continue
		}

		success(out, "%s %s (%s)", rt.Method, rt.Pattern.Raw, rt.Pattern.Signature())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d routes failed to compile", failed, len(patterns))
	}

	return nil
}

func buildCmd() *cobra.Command {
	var (
		fragment string
		method   string
		query    []string
	)

	cmd := &cobra.Command{
		Use:   "build <pattern> [arg]...",
		Short: "Build a URL from a route pattern",
		Long: `Build the URL a template calling the route's builder with args renders.

Each arg is parsed as the type of the parameter at its position.

Examples:
  canopy build /items/{id:int} 42
  canopy build /files/{rest:path} docs/readme.md --query download=true`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.OutOrStdout(), method, args[0], args[1:], query, fragment)
		},
	}

	cmd.Flags().StringVarP(&fragment, "fragment", "f", "", "fragment appended to the URL")
	cmd.Flags().StringVarP(&method, "method", "m", http.MethodGet, "HTTP method of the route")
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "key=value query parameter, repeatable")

	return cmd
}

func runBuild(out io.Writer, method, pattern string, raw, query []string, fragment string) error {
	p, err := route.NewCompiler().Parse(pattern)
	if err != nil {
		return err
	}

	sig := p.Signature()
	args := make([]any, len(raw))
	for i, s := range raw {
		if i >= len(sig) {
			args[i] = s
			continue
		}

		v, err := sig[i].Type.Parse(s)
		if err != nil {
			return fmt.Errorf("%w: param %q: %s", route.ErrArgMismatch, sig[i].Name, err)
		}
		args[i] = v
	}

	ep, err := route.NewBuilder(pattern, strings.ToUpper(method), p).Build(args...)
	if err != nil {
		return err
	}

	for _, q := range query {
		k, v, ok := strings.Cut(q, "=")
		if !ok || k == "" {
			return fmt.Errorf("query %q is not key=value", q)
		}
		ep = ep.WithQuery(k, v)
	}

	if fragment != "" {
		ep = ep.WithFragment(fragment)
	}

	fmt.Fprintf(out, "%s %s\n", ep.Method(), ep)
	return nil
}

func matchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <pattern> <path>",
		Short: "Match a path against a route pattern",
		Long: `Match an escaped request path against a route pattern,
printing each extracted value as name=value in signature order.

Example:
  canopy match /items/{id:int}/{slug} /items/42/blue-widget`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func runMatch(out io.Writer, pattern, path string) error {
	m, sig, err := route.Compile(pattern)
	if err != nil {
		return err
	}

	vals, ok := m.Match(path)
	if !ok {
		return fmt.Errorf("%w: %s does not match %s", route.ErrNotFound, path, pattern)
	}

	for _, name := range sig.Names() {
		fmt.Fprintf(out, "%s=%v\n", name, vals[name])
	}

	return nil
}
