/*
Package manifest classifies Pipfile and Pipfile.lock package entries and splits
setup.py requirement strings.

Pipfile style entries are either a plain version string ('numpy = "~=1.2"') or a
table. Tables are told apart by their keys: vcs keys ('git', 'bzr', 'svn', 'hg')
win over 'path', which wins over 'file'; anything else is a PyPI package.
*/
package manifest

import (
	"fmt"

	"github.com/dephub/pipcheck/providers/vcs"
)

// Kind represents a manifest entry kind flag.
type Kind int

// Available entry kinds
const (
	// PyPiKind is a package installed from the package index by version.
	PyPiKind Kind = iota
	// VcsKind is a package installed from a version control repository.
	VcsKind
	// FileKind is a package installed from a remote archive.
	FileKind
	// LocalKind is a package installed from the local filesystem.
	LocalKind
)

func (k Kind) String() string {
	switch k {
	case PyPiKind:
		return "pypi"
	case VcsKind:
		return "vcs"
	case FileKind:
		return "file"
	case LocalKind:
		return "local"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Entry is one classified package entry. It is implemented by PyPiEntry, VcsEntry,
// FileEntry and LocalEntry only.
type Entry interface {
	Kind() Kind
	entry()
}

// PyPiEntry represents a package pinned or ranged by version.
type PyPiEntry struct {
	Version string // Version range (e.g. '==1.2.3'), empty or '*' for any version
	Markers string
	Extras  []string
}

// VcsEntry represents a version control package.
type VcsEntry struct {
	VCS      vcs.Kind
	URL      string
	Ref      string
	Editable bool
}

// FileEntry represents a remote archive (e.g. a '.zip' release).
type FileEntry struct {
	URL string
}

// LocalEntry represents a local directory or archive.
type LocalEntry struct {
	Path     string
	Editable bool
}

func (PyPiEntry) Kind() Kind  { return PyPiKind }
func (VcsEntry) Kind() Kind   { return VcsKind }
func (FileEntry) Kind() Kind  { return FileKind }
func (LocalEntry) Kind() Kind { return LocalKind }

func (PyPiEntry) entry()  {}
func (VcsEntry) entry()   {}
func (FileEntry) entry()  {}
func (LocalEntry) entry() {}

// ClassifyError is returned when a raw entry has an unsupported shape.
type ClassifyError struct {
	Raw    any
	Reason string
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("can not understand package config %v: %s", e.Raw, e.Reason)
}

// Classify turns a raw manifest value (string or decoded table) into an Entry.
func Classify(raw any) (Entry, error) {
	switch v := raw.(type) {
	case string:
		return PyPiEntry{Version: v}, nil
	case map[string]any:
		return classifyTable(v)
	case map[string]string:
		table := make(map[string]any, len(v))
		for k, val := range v {
			table[k] = val
		}
		return classifyTable(table)
	}
	return nil, &ClassifyError{Raw: raw, Reason: fmt.Sprintf("unsupported value type %T", raw)}
}

func classifyTable(table map[string]any) (Entry, error) {
	for _, kind := range vcs.Kinds {
		if _, ok := table[string(kind)]; !ok {
			continue
		}
		url, err := stringField(table, string(kind))
		if err != nil {
			return nil, err
		}
		ref, err := stringField(table, "ref")
		if err != nil {
			return nil, err
		}
		return VcsEntry{VCS: kind, URL: url, Ref: ref, Editable: boolField(table, "editable")}, nil
	}

	if _, ok := table["path"]; ok {
		path, err := stringField(table, "path")
		if err != nil {
			return nil, err
		}
		return LocalEntry{Path: path, Editable: boolField(table, "editable")}, nil
	}

	if _, ok := table["file"]; ok {
		url, err := stringField(table, "file")
		if err != nil {
			return nil, err
		}
		return FileEntry{URL: url}, nil
	}

	version, err := stringField(table, "version")
	if err != nil {
		return nil, err
	}
	markers, err := stringField(table, "markers")
	if err != nil {
		return nil, err
	}
	return PyPiEntry{Version: version, Markers: markers, Extras: stringsField(table, "extras")}, nil
}

func stringField(table map[string]any, key string) (string, error) {
	raw, ok := table[key]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &ClassifyError{Raw: table, Reason: fmt.Sprintf("%q is not a string", key)}
	}
	return s, nil
}

func boolField(table map[string]any, key string) bool {
	b, _ := table[key].(bool)
	return b
}

func stringsField(table map[string]any, key string) []string {
	var res []string
	switch v := table[key].(type) {
	case []string:
		res = append(res, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				res = append(res, s)
			}
		}
	}
	return res
}
