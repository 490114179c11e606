/*
Package fetchers provides manifest file fetching for local directories, in-memory
projects and GitHub repositories.

Usage:
	f := fetchers.DirFetcher{Dir: "."}
	b, err := f.FileContent(ctx, "Pipfile")
	if errors.Is(err, fetchers.ErrFileNotFound) {
		// no Pipfile in the project
	}
*/
package fetchers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v33/github"
)

var (
	ErrFileNotFound = errors.New("manifest file not found")
	ErrNotAFile     = errors.New("path is a directory or not a valid file")
)

// FileFetcher interface defines fetchers methods.
type FileFetcher interface {
	FileContent(ctx context.Context, path string) ([]byte, error)
}

// ByteMapFetcher keeps file contents in memory (useful for testing or for projects
// assembled on the fly).
type ByteMapFetcher struct {
	Files map[string][]byte
}

// FileContent returns the content stored under path.
func (sf ByteMapFetcher) FileContent(_ context.Context, path string) ([]byte, error) {
	v, ok := sf.Files[path]
	if !ok {
		return nil, ErrFileNotFound
	}
	return v, nil
}

// GitHubFetcher fetches files from the specified repository.
// Owner and Repo represent '{owner}/{repo}' notation.
type GitHubFetcher struct {
	Owner        string
	Repo         string
	SHA          string
	githubClient *github.Client
}

// NewGitHubFetcher constructs GitHubFetcher with specified parameters.
// httpClient can be used as OAuth2 or BasicAuth http transport.
func NewGitHubFetcher(httpClient *http.Client, owner, repo, sha string) FileFetcher {
	return &GitHubFetcher{
		Owner:        owner,
		Repo:         repo,
		SHA:          sha,
		githubClient: github.NewClient(httpClient),
	}
}

// FileContent fetches specified file content from the configured repository.
// Path argument is the root-related file path.
func (p GitHubFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	opts := github.RepositoryContentGetOptions{
		Ref: p.SHA,
	}

	rc, dc, resp, err := p.githubClient.Repositories.GetContents(ctx, p.Owner, p.Repo, path, &opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("unable to load '%s' file from github: %w", path, err)
	}

	if len(dc) != 0 || rc == nil {
		return nil, ErrNotAFile
	}

	c, err := rc.GetContent()
	if err != nil {
		return nil, fmt.Errorf("unable to decode '%s' file content: %w", path, err)
	}

	return []byte(c), nil
}
