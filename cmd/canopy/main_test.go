package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/canopy/route"
	"github.com/xy-planning-network/canopy/template"
)

func init() {
	color.NoColor = true
}

func execute(args ...string) (string, string, error) {
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	err := cmd.Execute()

	return out.String(), errOut.String(), err
}

func TestParse(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	good := filepath.Join(dir, "good.html")
	bad := filepath.Join(dir, "bad.html")
	empty := filepath.Join(dir, "empty.html")
	require.Nil(t, os.WriteFile(good, []byte(`<ul>@for item in items {<li>{item}</li>}</ul>`), 0o600))
	require.Nil(t, os.WriteFile(bad, []byte("<p>\n  <b>{name</b>\n</p>"), 0o600))
	require.Nil(t, os.WriteFile(empty, nil, 0o600))

	t.Run("Good", func(t *testing.T) {
		// Act
		out, errOut, err := execute("parse", good, empty)

		// Assert
		require.Nil(t, err)
		require.Equal(t, "✓ "+good+"\n! "+empty+" is empty\n", out)
		require.Empty(t, errOut)
	})

	t.Run("Bad", func(t *testing.T) {
		// Act
		out, errOut, err := execute("parse", good, bad, filepath.Join(dir, "missing.html"))

		// Assert
		require.EqualError(t, err, "2 of 3 templates failed to parse")
		require.Equal(t, "✓ "+good+"\n", out)
		require.Contains(t, errOut, "✗ "+bad+":2:")
		require.Contains(t, errOut, "missing.html")
	})

	t.Run("No-Args", func(t *testing.T) {
		// Act
		_, _, err := execute("parse")

		// Assert
		require.Error(t, err)
	})
}

func TestRoute(t *testing.T) {
	tcs := []struct {
		name   string
		args   []string
		out    string
		errOut string
		err    string
	}{
		{
			"Signatures",
			[]string{"route", "/", "/items/{id:int}", "/items/{id:int}/notes/{slug}"},
			"✓ GET / ()\n✓ GET /items/{id:int} (id int)\n✓ GET /items/{id:int}/notes/{slug} (id int, slug string)\n",
			"",
			"",
		},
		{
			"Method",
			[]string{"route", "--method", "post", "/items"},
			"✓ POST /items ()\n",
			"",
			"",
		},
		{
			"Ambiguous",
			[]string{"route", "/items/{id:int}", "/items/{slug}"},
			"✓ GET /items/{id:int} (id int)\n",
			"ambiguous",
			"1 of 2 routes failed to compile",
		},
		{
			"Malformed",
			[]string{"route", "items"},
			"",
			"malformed",
			"1 of 1 routes failed to compile",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			out, errOut, err := execute(tc.args...)

			// Assert
			require.Equal(t, tc.out, out)
			require.Contains(t, errOut, tc.errOut)
			if tc.err == "" {
				require.Nil(t, err)
				return
			}
			require.EqualError(t, err, tc.err)
		})
	}
}

func TestBuild(t *testing.T) {
	tcs := []struct {
		name  string
		args  []string
		out   string
		isErr error
	}{
		{"Int", []string{"build", "/items/{id:int}", "42"}, "GET /items/42\n", nil},
		{"UUID", []string{"build", "/users/{id:uuid}", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"}, "GET /users/6ba7b810-9dad-11d1-80b4-00c04fd430c8\n", nil},
		{"Path", []string{"build", "/files/{rest:path}", "docs/readme.md"}, "GET /files/docs/readme.md\n", nil},
		{"Query-Fragment", []string{"build", "/items", "-q", "page=2", "-q", "sort=name", "-f", "top"}, "GET /items?page=2&sort=name#top\n", nil},
		{"Method", []string{"build", "-m", "delete", "/items/{id:int}", "7"}, "DELETE /items/7\n", nil},
		{"Too-Few", []string{"build", "/items/{id:int}"}, "", route.ErrArgMismatch},
		{"Too-Many", []string{"build", "/items", "1"}, "", route.ErrArgMismatch},
		{"Not-Int", []string{"build", "/items/{id:int}", "abc"}, "", route.ErrArgMismatch},
		{"Malformed", []string{"build", "/items/{id:nope}"}, "", route.ErrMalformed},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			out, _, err := execute(tc.args...)

			// Assert
			require.Equal(t, tc.out, out)
			if tc.isErr == nil {
				require.Nil(t, err)
				return
			}
			require.ErrorIs(t, err, tc.isErr)
		})
	}
}

func TestMatch(t *testing.T) {
	tcs := []struct {
		name  string
		args  []string
		out   string
		isErr error
	}{
		{"Typed", []string{"match", "/items/{id:int}/{slug}", "/items/42/blue-widget"}, "id=42\nslug=blue-widget\n", nil},
		{"Escaped", []string{"match", "/tags/{name}", "/tags/a%20b"}, "name=a b\n", nil},
		{"Catch-All", []string{"match", "/files/{rest:path}", "/files/docs/readme.md"}, "rest=docs/readme.md\n", nil},
		{"No-Match", []string{"match", "/items/{id:int}", "/items/abc"}, "", route.ErrNotFound},
		{"Malformed", []string{"match", "items", "/items"}, "", route.ErrMalformed},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			out, _, err := execute(tc.args...)

			// Assert
			require.Equal(t, tc.out, out)
			if tc.isErr == nil {
				require.Nil(t, err)
				return
			}
			require.ErrorIs(t, err, tc.isErr)
		})
	}
}

func TestVersion(t *testing.T) {
	// Act
	out, _, err := execute("version", "--short")

	// Assert
	require.Nil(t, err)
	require.Equal(t, "dev\n", out)
}

func TestParseReportsParseError(t *testing.T) {
	// Arrange
	file := filepath.Join(t.TempDir(), "bad.html")
	require.Nil(t, os.WriteFile(file, []byte("<p>{</p>"), 0o600))

	// Act
	err := runParse(new(bytes.Buffer), new(bytes.Buffer), []string{file})

	// Assert
	require.Error(t, err)

	_, perr := template.Parse(template.Source{ID: file, Text: "<p>{</p>"})
	require.ErrorIs(t, perr, template.ErrParse)
}
