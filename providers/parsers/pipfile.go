package parsers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/dephub/pipcheck/providers/fetchers"
)

// NewPipfileParser constructs Pipfile parser.
// If 'filename' parameter is an empty string - 'Pipfile' will be used instead.
func NewPipfileParser(fetcher fetchers.FileFetcher, filename string) PackagesParser {
	if filename == "" {
		filename = "Pipfile"
	}
	return &PipfileParser{fetcher: fetcher, SourceName: filename}
}

// PipfileParser reads TOML Pipfiles.
type PipfileParser struct {
	fetcher fetchers.FileFetcher
	// SourceName is the source filename (e.g. 'Pipfile')
	SourceName string
}

// Packages returns the '[packages]' or '[dev-packages]' table.
func (p PipfileParser) Packages(ctx context.Context, section Section) (map[string]any, error) {
	b, err := fetch(ctx, p.fetcher, p.SourceName)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := toml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("unable to parse %s content: %w", p.SourceName, err)
	}

	key := "packages"
	if section == Develop {
		key = "dev-packages"
	}
	return sectionTable(doc, key, p.SourceName)
}

// NewLockfileParser constructs Pipfile.lock parser.
// If 'filename' parameter is an empty string - 'Pipfile.lock' will be used instead.
func NewLockfileParser(fetcher fetchers.FileFetcher, filename string) PackagesParser {
	if filename == "" {
		filename = "Pipfile.lock"
	}
	return &LockfileParser{fetcher: fetcher, SourceName: filename}
}

// LockfileParser reads JSON Pipfile.lock files.
type LockfileParser struct {
	fetcher fetchers.FileFetcher
	// SourceName is the source filename (e.g. 'Pipfile.lock')
	SourceName string
}

// Packages returns the 'default' or 'develop' object.
func (p LockfileParser) Packages(ctx context.Context, section Section) (map[string]any, error) {
	b, err := fetch(ctx, p.fetcher, p.SourceName)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("unable to parse %s content: %w", p.SourceName, err)
	}

	key := "default"
	if section == Develop {
		key = "develop"
	}
	return sectionTable(doc, key, p.SourceName)
}
