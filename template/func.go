package template

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/xy-planning-network/canopy"
)

const (
	assetsBase = "client/dist"
)

// builtins are callable from every template.
// An Env function of the same name takes precedence.
var builtins = map[string]reflect.Value{
	"class_names": reflect.ValueOf(classNames),
	"len": reflect.ValueOf(func(v any) int {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
			return rv.Len()
		default:
			return 0
		}
	}),
	"raw": reflect.ValueOf(func(v any) (Fragment, error) {
		if f, ok := v.(Fragment); ok {
			return f, nil
		}

		s, err := stringify(v)
		if err != nil {
			return Fragment{}, err
		}

		return RawFragment(s), nil
	}),
}

// classNames joins classes into a single class attribute value.
// Nil values, nil pointers and blank strings contribute nothing,
// so optional classes compose without conditionals.
func classNames(classes ...any) (string, error) {
	var names []string
	for _, c := range classes {
		s, err := stringify(c)
		if err != nil {
			return "", err
		}
		names = append(names, strings.Fields(s)...)
	}

	return strings.Join(names, " "), nil
}

// AssetURI encloses the environment and filesystem so when called rendering a template,
// emits valid URI for client side static and bundled assets.
func AssetURI(env canopy.Environment, filesys fs.FS) (string, func(string) string) {
	if filesys == nil {
		filesys = os.DirFS(".")
	}

	return "asset", func(assetPath string) string {
		switch {
		case env.IsTesting():
			return ""

		case env.IsDevelopment():
			return fmt.Sprintf("http://localhost:8080/%s/%s", assetsBase, assetPath)

		default:
			// NOTE(dlk): match hashed files bundled by Vite,
			// e.g., assets/app.js globs client/dist/assets/app-*.js
			ext := filepath.Ext(assetPath)
			glob := fmt.Sprintf("%s/%s-*%s", assetsBase, strings.TrimSuffix(assetPath, ext), ext)
			matches, err := fs.Glob(filesys, glob)
			if errors.Is(err, path.ErrBadPattern) || len(matches) == 0 {
				return fmt.Sprintf("/%s/%s", assetsBase, assetPath)
			}

			return "/" + matches[0]
		}
	}
}

// EnvName encloses some string representing an environment.
// It returns "env" as the name of the function for convenient passing to WithFn
// and returns a function returning the enclosed value when called.
func EnvName(e canopy.Environment) (string, func() string) {
	return "env", func() string { return e.String() }
}

// Nonce returns "nonce" as the name of the function for convenient passing to WithFn
// and returns a function generating a uuid.
func Nonce() (string, func() string) {
	return "nonce", func() string { return uuid.NewString() }
}

// RootUrl encloses the base URL of the web app.
// It returns "root_url" as the name of the function for convenient passing to WithFn
// and returns a function returning u.String().
// If u is nil, that function will always return an empty string.
func RootUrl(u *url.URL) (string, func() string) {
	if u == nil {
		return "root_url", func() string { return "" }
	}

	s := u.String()
	return "root_url", func() string { return s }
}
