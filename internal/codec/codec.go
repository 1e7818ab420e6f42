// Package codec reads and writes diagrams in their document form.
//
// JSON is the canonical format. YAML carries the same document with the
// same keys. Decoding replays the document through the diagram's
// validated operations, so a document that breaks an invariant is
// rejected rather than loaded.
package codec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Benny93/uml-go/internal/diagram"
)

// ErrUnknownFormat is returned when no codec matches a format name or file
// extension.
var ErrUnknownFormat = errors.New("codec: unknown format")

// Importer decodes a diagram from a reader.
type Importer interface {
	Parse(r io.Reader) (*diagram.Store, error)
	Format() string
}

// Exporter encodes a diagram to a writer.
type Exporter interface {
	Export(s *diagram.Store, w io.Writer) error
	Format() string
}

// Codec is both an Importer and an Exporter.
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec registered under name ("json", "yaml" or
// "yml").
func ForFormat(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// ForPath picks a codec from the file extension.
func ForPath(path string) (Codec, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ForFormat(ext)
}

// ReadFile loads a diagram from path using the codec matching its
// extension.
func ReadFile(path string) (*diagram.Store, error) {
	c, err := ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening diagram file: %w", err)
	}
	defer f.Close()

	s, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s, nil
}

// WriteFile stores a diagram at path using the codec matching its
// extension. The file is replaced atomically and keeps its permissions; a
// new file is created with mode 0644.
func WriteFile(path string, s *diagram.Store) error {
	c, err := ForPath(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := c.Export(s, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing diagram file: %w", err)
	}
	return nil
}
