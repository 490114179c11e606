/*
Package parsers provides readers for the manifest files of a pipenv project.

Goals:
 - Reading Pipfile and Pipfile.lock package tables as raw values (see providers/manifest)
 - Reading install_requires and dependency_links out of the setup() call of setup.py

Usage:
	f := fetchers.DirFetcher{Dir: "."}
	pkgs, err := parsers.NewPipfileParser(f, "").Packages(ctx, parsers.Default)
	args, err := parsers.NewSetupPyParser(f, "").Declared(ctx)
*/
package parsers

import (
	"context"
	"errors"
	"fmt"

	"github.com/dephub/pipcheck/providers/fetchers"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

// Section represents a package group of Pipfile style manifests.
type Section int

// Available sections
const (
	// Default holds the packages required at runtime ('packages' / 'default').
	Default Section = iota
	// Develop holds the development packages ('dev-packages' / 'develop').
	Develop
)

func (s Section) String() string {
	if s == Develop {
		return "develop"
	}
	return "default"
}

// PackagesParser represents readers of Pipfile style manifests.
type PackagesParser interface {
	// Packages returns raw package entries of a section keyed by package name.
	// Missing sections result in an empty map.
	Packages(ctx context.Context, section Section) (map[string]any, error)
}

// DeclarationParser represents readers of setup.py style manifests.
type DeclarationParser interface {
	Declared(ctx context.Context) (SetupArgs, error)
}

// SetupArgs contains the dependency related keywords of a setup() call.
type SetupArgs struct {
	InstallRequires []string
	DependencyLinks []string
}

// MissingFileError names the manifest file that could not be found.
type MissingFileError struct {
	Name string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("file %s not found", e.Name)
}

func (e *MissingFileError) Unwrap() error {
	return ErrFileNotFound
}

// fetch loads a manifest file and maps missing files to *MissingFileError.
func fetch(ctx context.Context, fetcher fetchers.FileFetcher, name string) ([]byte, error) {
	b, err := fetcher.FileContent(ctx, name)
	if err != nil {
		if errors.Is(err, fetchers.ErrFileNotFound) {
			return nil, &MissingFileError{Name: name}
		}
		return nil, fmt.Errorf("unable to fetch '%s' from the source: %w", name, err)
	}
	return b, nil
}

// sectionTable extracts a package table out of a decoded manifest.
func sectionTable(doc map[string]any, key, source string) (map[string]any, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return map[string]any{}, nil
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("section '%s' of %s is not a table", key, source)
	}
	return table, nil
}
