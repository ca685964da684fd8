/*

Package templatetest exposes a mock fs.FS serving template sources from memory.
Used in unit tests for the purposes of avoiding the use of testdata/ directories when unit testing template rendering.

*/
package templatetest

import (
	"bytes"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/xy-planning-network/canopy/template"
)

// NewSet constructs a *template.Set reading the mocked files.
func NewSet(files map[string]string, opts ...template.SetOptFn) *template.Set {
	return template.NewSet(append([]template.SetOptFn{template.WithFS(NewMockFS(files))}, opts...)...)
}

// A MockFS serves files from memory and counts how often each is opened.
type MockFS struct {
	files map[string]string

	mu    sync.Mutex
	opens map[string]int
}

// NewMockFS constructs a *MockFS serving files, keyed by name.
func NewMockFS(files map[string]string) *MockFS {
	return &MockFS{files: files, opens: make(map[string]int)}
}

// Opens reports how many times name was opened.
func (mfs *MockFS) Opens(name string) int {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	return mfs.opens[name]
}

// Glob matches pattern against the names of every file.
func (mfs *MockFS) Glob(pattern string) ([]string, error) {
	matches := []string{}
	for name := range mfs.files {
		matched, err := path.Match(pattern, name)
		if err != nil {
			return nil, err
		}
		if matched {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)

	return matches, nil
}

func (mfs *MockFS) Open(name string) (fs.File, error) {
	data, ok := mfs.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}

	mfs.mu.Lock()
	mfs.opens[name]++
	mfs.mu.Unlock()

	return &MockFile{Reader: bytes.NewReader([]byte(data)), name: path.Base(name), size: int64(len(data))}, nil
}

// A MockFile is an open file of a MockFS.
type MockFile struct {
	*bytes.Reader
	name string
	size int64
}

func (m *MockFile) Close() error               { return nil }
func (m *MockFile) Name() string               { return m.name }
func (m *MockFile) IsDir() bool                { return false }
func (m *MockFile) Mode() fs.FileMode          { return 0o444 }
func (m *MockFile) ModTime() time.Time         { return time.Time{} }
func (m *MockFile) Size() int64                { return m.size }
func (m *MockFile) Stat() (fs.FileInfo, error) { return m, nil }
func (m *MockFile) Sys() any                   { return nil }
