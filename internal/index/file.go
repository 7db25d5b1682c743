package index

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/xeipuuv/gojsonschema"

	dserrors "github.com/systmms/hemli/internal/errors"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

// nativeFS is a billy.Filesystem over the real filesystem with absolute paths.
type nativeFS struct {
	osfs.ChrootOS
}

// Chroot returns a new filesystem rooted at the provided path.
func (n *nativeFS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

// Root returns the root path for this filesystem.
func (n *nativeFS) Root() string {
	return "/"
}

// DefaultPath returns the default index location.
func DefaultPath() string {
	// Try to use XDG_DATA_HOME first
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "hemli", "index.json")
	}

	// Fall back to ~/.local/share
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "hemli", "index.json")
	}

	// Last resort: use temp directory
	return filepath.Join(os.TempDir(), "hemli", "index.json")
}

// File reads and writes the index document as a whole.
type File struct {
	fs   billy.Filesystem
	name string
}

// Open returns the index file at an absolute path on disk.
func Open(path string) *File {
	return NewFile(&nativeFS{}, path)
}

// NewFile returns the index file name inside fs.
func NewFile(fs billy.Filesystem, name string) *File {
	return &File{fs: fs, name: name}
}

// Path returns the file name.
func (f *File) Path() string {
	return f.name
}

// Load reads the index. A missing or empty file is an empty index.
func (f *File) Load() (*Index, error) {
	file, err := f.fs.Open(f.name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Index{}, nil
		}
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return &Index{}, nil
	}

	if err := validate(data); err != nil {
		return nil, &dserrors.IndexError{Path: f.name, Err: err}
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, &dserrors.IndexError{Path: f.name, Err: err}
	}
	return &idx, nil
}

// Save replaces the file with idx. The write goes to a temp file in the same
// directory which is then renamed over the index, so readers never see a
// partial document.
func (f *File) Save(idx *Index) error {
	if idx.Entries == nil {
		idx.Entries = []Entry{}
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	dir := filepath.Dir(f.name)
	if dir != "." {
		if err := f.fs.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	tmp, err := f.fs.TempFile(dir, ".index-")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("failed to write temp index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("failed to close temp index file: %w", err)
	}
	if err := f.fs.Rename(tmpName, f.name); err != nil {
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("failed to rename index file: %w", err)
	}
	return nil
}

// Update loads the index, applies fn and saves the result. Nothing is written
// when fn returns an error.
func (f *File) Update(fn func(*Index) error) error {
	idx, err := f.Load()
	if err != nil {
		return err
	}
	if err := fn(idx); err != nil {
		return err
	}
	return f.Save(idx)
}

func validate(data []byte) error {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	})
	if schemaErr != nil {
		return fmt.Errorf("failed to load index schema: %w", schemaErr)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(errorMessages, "\n  - "))
	}
	return nil
}
