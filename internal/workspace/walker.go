// Package workspace finds, validates and watches diagram files in a
// directory tree.
package workspace

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/Benny93/uml-go/internal/codec"
	"github.com/Benny93/uml-go/internal/diagram"
)

// Entry is one diagram file found in a workspace.
type Entry struct {
	// Path is the absolute file path.
	Path string

	// RelPath is the path relative to the workspace root.
	RelPath string

	// Format is the codec format ("json" or "yaml").
	Format string

	// SHA256 is the hash of the file content.
	SHA256 string

	// Store is the decoded diagram; nil when Err is set or Removed.
	Store *diagram.Store

	// Err is the decode or validation error, if any.
	Err error

	// Removed is set by the watcher for files deleted since the last batch.
	Removed bool
}

// Valid reports whether the file decoded into a diagram.
func (e Entry) Valid() bool {
	return e.Store != nil && e.Err == nil
}

// Default patterns to ignore (in addition to .gitignore).
var defaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	"vendor/",
	".uml-go/",
	"dist/",
	"build/",
	"package.json",
	"package-lock.json",
	"tsconfig.json",
	"*.schema.json",
	".DS_Store",
}

// Matcher decides which workspace paths are skipped.
type Matcher struct {
	m gitignore.Matcher
}

// NewMatcher combines the default ignore patterns with the root's
// .gitignore, if present.
func NewMatcher(root string) (*Matcher, error) {
	patterns := make([]gitignore.Pattern, 0, len(defaultIgnorePatterns))
	for _, p := range defaultIgnorePatterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	loaded, err := loadGitignore(root)
	if err != nil {
		return nil, err
	}
	patterns = append(patterns, loaded...)

	return &Matcher{m: gitignore.NewMatcher(patterns)}, nil
}

// Ignored reports whether relPath is excluded.
func (m *Matcher) Ignored(relPath string, isDir bool) bool {
	if m == nil || relPath == "." || relPath == "" {
		return false
	}
	return m.m.Match(splitPath(relPath), isDir)
}

// Scan walks root and decodes every diagram file that is not ignored.
// Files that fail to decode are returned with Err set. Entries are
// ordered by RelPath.
func Scan(root string) ([]Entry, error) {
	matcher, err := NewMatcher(root)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if matcher.Ignored(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !IsDiagramFile(d.Name()) || matcher.Ignored(relPath, false) {
			return nil
		}

		entry, err := readEntry(root, relPath)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}

// readEntry reads and decodes one file. A missing file yields a Removed
// entry; other read failures are returned as errors.
func readEntry(root, relPath string) (Entry, error) {
	path := filepath.Join(root, relPath)
	entry := Entry{Path: path, RelPath: relPath}

	c, err := codec.ForPath(path)
	if err != nil {
		return Entry{}, err
	}
	entry.Format = c.Format()

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		entry.Removed = true
		return entry, nil
	}
	if err != nil {
		return Entry{}, err
	}

	hash := sha256.Sum256(content)
	entry.SHA256 = hex.EncodeToString(hash[:])
	entry.Store, entry.Err = c.Parse(bytes.NewReader(content))
	return entry, nil
}

// loadGitignore loads .gitignore patterns from the workspace root.
func loadGitignore(root string) ([]gitignore.Pattern, error) {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns, nil
}

// IsDiagramFile checks if a file has a diagram extension.
func IsDiagramFile(filename string) bool {
	_, err := codec.ForPath(filename)
	return err == nil
}

// SaveName derives a save library name from a workspace path:
// "models/shop.yaml" becomes "models.shop".
func SaveName(relPath string) string {
	name := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	return strings.Join(splitPath(name), ".")
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	return strings.Split(filepath.Clean(path), string(filepath.Separator))
}
