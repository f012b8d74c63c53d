package sharenv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/zoobzio/capitan"
)

// Loader reads the variable source into a new set of records.
// Implementations must not share state with the Store.
type Loader interface {
	// Load reads the source. Individual entries that cannot be used are
	// reported in LoadResult.Skipped; an error is returned only when the
	// source as a whole is unavailable.
	Load(ctx context.Context) (LoadResult, error)
}

// SkipReason classifies why an entry was left out of a load.
type SkipReason string

// Skip reasons.
const (
	SkipUnreadable   SkipReason = "unreadable"
	SkipEmpty        SkipReason = "empty"
	SkipInvalidName  SkipReason = "invalid name"
	SkipInvalidAlias SkipReason = "invalid alias"
)

// SkippedEntry is a source entry that did not produce a record.
type SkippedEntry struct {
	Name   string
	Reason SkipReason
	Err    error
}

// Error implements error.
func (e SkippedEntry) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Name, e.Reason, e.Err)
}

// Unwrap returns the underlying cause.
func (e SkippedEntry) Unwrap() error {
	return e.Err
}

// LoadResult is the outcome of one Load.
type LoadResult struct {
	Variables []Variable
	Aliases   []Alias
	Skipped   []SkippedEntry
}

// Fingerprint returns a digest of the loaded variables and aliases.
// Two results with the same records in the same order share a fingerprint.
func (r LoadResult) Fingerprint() string {
	h := sha256.New()
	for _, v := range r.Variables {
		h.Write([]byte(v.Name()))
		for _, value := range v.values {
			h.Write([]byte{0})
			h.Write([]byte(value))
		}
		h.Write([]byte{1})
	}
	h.Write([]byte{2})
	for _, a := range r.Aliases {
		h.Write([]byte(a.Name))
		h.Write([]byte{0})
		h.Write([]byte(a.Command))
		if a.Expand {
			h.Write([]byte{3})
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DirLoader loads one variable per file from a directory. The file name is
// the variable name and each non-blank line is a candidate value.
// Hidden files and subdirectories are ignored.
type DirLoader struct {
	vars    fs.FS
	varsDir string

	aliases     fs.FS
	aliasesName string
}

// NewDirLoader creates a DirLoader for the directory at dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{vars: os.DirFS(dir), varsDir: dir}
}

// NewFSLoader creates a DirLoader reading variables from the root of fsys.
func NewFSLoader(fsys fs.FS) *DirLoader {
	return &DirLoader{vars: fsys, varsDir: "."}
}

// Aliases additionally loads shell aliases from the file at path.
// A missing file yields no aliases.
func (l *DirLoader) Aliases(path string) *DirLoader {
	if path == "" {
		return l
	}
	return l.AliasesFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// AliasesFS additionally loads shell aliases from name within fsys.
func (l *DirLoader) AliasesFS(fsys fs.FS, name string) *DirLoader {
	l.aliases = fsys
	l.aliasesName = name
	return l
}

// Load implements Loader.
func (l *DirLoader) Load(ctx context.Context) (LoadResult, error) {
	var result LoadResult

	entries, err := fs.ReadDir(l.vars, ".")
	if err != nil {
		return result, fmt.Errorf("failed to read variables directory %s: %w", l.varsDir, err)
	}

	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return LoadResult{}, err
		}
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		info, err := fs.Stat(l.vars, name)
		if err != nil {
			result.skip(ctx, name, SkipUnreadable, err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if err := ValidName(name); err != nil {
			result.skip(ctx, name, SkipInvalidName, err)
			continue
		}

		data, err := fs.ReadFile(l.vars, name)
		if err != nil {
			result.skip(ctx, name, SkipUnreadable, err)
			continue
		}
		values := splitValues(data)
		if len(values) == 0 {
			result.skip(ctx, name, SkipEmpty, nil)
			continue
		}
		result.Variables = append(result.Variables, Variable{name: name, values: values})
	}

	if l.aliases != nil {
		l.loadAliases(ctx, &result)
	}

	return result, nil
}

func (l *DirLoader) loadAliases(ctx context.Context, result *LoadResult) {
	data, err := fs.ReadFile(l.aliases, l.aliasesName)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		result.skip(ctx, l.aliasesName, SkipUnreadable, err)
		return
	}
	aliases, errs := ParseAliases(data)
	for _, err := range errs {
		result.skip(ctx, l.aliasesName, SkipInvalidAlias, err)
	}
	result.Aliases = aliases
}

func (r *LoadResult) skip(ctx context.Context, name string, reason SkipReason, err error) {
	r.Skipped = append(r.Skipped, SkippedEntry{Name: name, Reason: reason, Err: err})
	if err == nil {
		capitan.Emit(ctx, LoaderEntrySkipped,
			KeyEntry.Field(name),
			KeyReason.Field(string(reason)),
		)
		return
	}
	capitan.Emit(ctx, LoaderEntrySkipped,
		KeyEntry.Field(name),
		KeyReason.Field(string(reason)),
		KeyError.Field(err.Error()),
	)
}

// splitValues splits file content into candidate values, trimming trailing
// whitespace from each line and dropping blank lines.
func splitValues(data []byte) []string {
	var values []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			continue
		}
		values = append(values, line)
	}
	return values
}

// Ensure DirLoader implements Loader.
var _ Loader = (*DirLoader)(nil)
