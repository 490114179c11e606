/*
Package pipcheck checks that the dependencies a setup.py declares are consistent with
the packages of the project's Pipfile or Pipfile.lock.

Usage:
	src := pipcheck.NewDirSource(".")
	declared, err := src.Declared(ctx)
	packages, err := src.Packages(ctx, pipcheck.PipfileType, parsers.Default)
	checker, err := pipcheck.NewChecker(declared, packages, pipcheck.WithStrict(true))
	reports, err := checker.Check()
*/
package pipcheck

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/dephub/pipcheck/providers/fetchers"
	"github.com/dephub/pipcheck/providers/manifest"
	"github.com/dephub/pipcheck/providers/parsers"
)

// ManifestType represents the authoritative manifest flag.
type ManifestType string

// Available authoritative manifests
const (
	// PipfileType represents the TOML Pipfile.
	PipfileType = ManifestType("pipfile")
	// LockfileType represents the JSON Pipfile.lock.
	LockfileType = ManifestType("lockfile")
)

// gitRepoRgx is used to parse repository info from GIT-compatible address string.
//
// Examples matching the regexp:
//     'git@myhostname:vendor/reponame.git'
//     'https://myhostname/vendor/reponame.git' and so on...
// Groups:
//     1: protocol (e.g. 'https://' or 'git@')
//     6: hostname (e.g. 'github.com')
//     8: full repo name (e.g. 'vendor/reponame')
var gitRepoRgx string = `^(((git@)|(git:|ssh:|(http[s]?:\/\/))))([\w\.@\\-~]+)(:|\/)([\w\.@\:\/\-~]+)(\.git)(\/-)?`

// gitRepoRgxCompiled is compiled from gitRepoRgx.
var gitRepoRgxCompiled *regexp.Regexp

func init() {
	gitRepoRgxCompiled = regexp.MustCompile(gitRepoRgx)
}

// ManifestSource represents abstraction over the manifest files of a project.
type ManifestSource interface {
	// Declared returns install_requires and dependency_links of setup.py.
	Declared(ctx context.Context) (Declared, error)
	// Packages returns raw package entries of the authoritative manifest section.
	Packages(ctx context.Context, typ ManifestType, section parsers.Section) (map[string]any, error)
}

// SourceOption configures manifest sources.
type SourceOption func(*FetcherSource)

// WithLogger makes the source log the files it reads.
func WithLogger(log *zap.Logger) SourceOption {
	return func(s *FetcherSource) {
		if log != nil {
			s.log = log
		}
	}
}

// WithFileNames overrides the manifest file names (empty values keep the defaults).
func WithFileNames(setupPy, pipfile, lockfile string) SourceOption {
	return func(s *FetcherSource) {
		if setupPy != "" {
			s.setupPy = setupPy
		}
		if pipfile != "" {
			s.pipfile = pipfile
		}
		if lockfile != "" {
			s.lockfile = lockfile
		}
	}
}

// FetcherSource reads manifests through a FileFetcher. Memory, directory and
// git sources only differ in their fetcher.
type FetcherSource struct {
	fetcher                    fetchers.FileFetcher
	log                        *zap.Logger
	setupPy, pipfile, lockfile string
}

func newFetcherSource(fetcher fetchers.FileFetcher, opts []SourceOption) *FetcherSource {
	s := &FetcherSource{
		fetcher:  fetcher,
		log:      zap.NewNop(),
		setupPy:  "setup.py",
		pipfile:  "Pipfile",
		lockfile: "Pipfile.lock",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewMemorySource constructs a source over in-memory file contents keyed by file name.
func NewMemorySource(files map[string][]byte, opts ...SourceOption) ManifestSource {
	return newFetcherSource(fetchers.ByteMapFetcher{Files: files}, opts)
}

// NewDirSource constructs a source over a local project directory.
func NewDirSource(dir string, opts ...SourceOption) ManifestSource {
	return newFetcherSource(fetchers.DirFetcher{Dir: dir}, opts)
}

// gitRepo represents basic repository information.
type gitRepo struct {
	host, vendor, repo string
}

// supGitSrcs - supported git sources.
var supGitSrcs = []string{"github.com"}

// NewGitSource constructs a source reading manifests of a remote git repository.
//
// SHA can both refer to commit hash/branch/tag.
//
// You can pass specific signed httpClient (see NewGitHubClient) for increased rate limits
// or private repositories.
//
// repoAddr is your repository address (e.g. 'git@github.com:vendor/reponame.git')
func NewGitSource(httpClient *http.Client, repoAddr, sha string, opts ...SourceOption) (ManifestSource, error) {
	repoData, err := parseGitAddr(repoAddr)
	if err != nil {
		return nil, err
	}
	fetcher := fetchers.NewGitHubFetcher(httpClient, repoData.vendor, repoData.repo, sha)
	return newFetcherSource(fetcher, opts), nil
}

// NewGitHubClient returns an OAuth2 authenticated client for token, or nil (anonymous
// access) when token is empty.
func NewGitHubClient(ctx context.Context, token string) *http.Client {
	if token == "" {
		return nil
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

// Declared returns install_requires and dependency_links of setup.py.
func (s FetcherSource) Declared(ctx context.Context) (Declared, error) {
	s.log.Debug("reading declared dependencies", zap.String("file", s.setupPy))

	args, err := parsers.NewSetupPyParser(s.fetcher, s.setupPy).Declared(ctx)
	if err != nil {
		return Declared{}, err
	}
	return Declared{InstallRequires: args.InstallRequires, DependencyLinks: args.DependencyLinks}, nil
}

// Packages returns raw package entries of the authoritative manifest section.
func (s FetcherSource) Packages(ctx context.Context, typ ManifestType, section parsers.Section) (map[string]any, error) {
	parser, name, err := s.solveParser(typ)
	if err != nil {
		return nil, err
	}
	s.log.Debug("reading packages", zap.String("file", name), zap.Stringer("section", section))

	pkgs, err := parser.Packages(ctx, section)
	if err != nil {
		return nil, err
	}
	s.log.Debug("packages read", zap.String("file", name), zap.Int("count", len(pkgs)))
	return pkgs, nil
}

// solveParser - helper to get configured manifest parser
func (s FetcherSource) solveParser(typ ManifestType) (parsers.PackagesParser, string, error) {
	switch typ {
	case PipfileType:
		return parsers.NewPipfileParser(s.fetcher, s.pipfile), s.pipfile, nil
	case LockfileType:
		return parsers.NewLockfileParser(s.fetcher, s.lockfile), s.lockfile, nil
	}
	return nil, "", fmt.Errorf("unsupported manifest type %q", typ)
}

// SplitLocal separates local path packages from the others. Local package names are sorted.
func SplitLocal(packages map[string]any) ([]string, map[string]any, error) {
	local := []string{}
	remote := make(map[string]any, len(packages))
	for name, raw := range packages {
		entry, err := manifest.Classify(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("package %s: %w", name, err)
		}
		if entry.Kind() == manifest.LocalKind {
			local = append(local, name)
			continue
		}
		remote[name] = raw
	}
	sort.Strings(local)
	return local, remote, nil
}

// parseGitAddr - helper to parse information from git repository address string
func parseGitAddr(addr string) (*gitRepo, error) {
	matches := gitRepoRgxCompiled.FindStringSubmatch(addr)
	if matches == nil || matches[6] == "" || matches[8] == "" {
		return nil, fmt.Errorf("unsupported git repository format %q", addr)
	}
	hostName, repoName := matches[6], matches[8]

	if !gitHostSupported(hostName) {
		return nil, fmt.Errorf("git source %q is not supported", hostName)
	}

	if !strings.Contains(repoName, "/") {
		return nil, fmt.Errorf("unable to parse vendor from name %q", repoName)
	}
	repoNameParts := strings.Split(repoName, "/")

	return &gitRepo{host: hostName, vendor: repoNameParts[0], repo: repoNameParts[1]}, nil
}

// gitHostSupported - helper to check git source support status
func gitHostSupported(host string) bool {
	for _, v := range supGitSrcs {
		if v == host {
			return true
		}
	}
	return false
}
