package pipcheck

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dephub/pipcheck/providers/manifest"
	"github.com/dephub/pipcheck/providers/parsers"
	"github.com/dephub/pipcheck/providers/versioneer"
)

// configureClient configures client that intercepts ALL requests and forwards them into the specified handler.
func configureClient(t *testing.T, handleFunc http.Handler) *http.Client {
	t.Helper()
	srv := httptest.NewTLSServer(handleFunc)
	t.Cleanup(srv.Close)

	// Configuring so that all the request go into our handler.
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(_ context.Context, network, _ string) (net.Conn, error) {
				return net.Dial(network, srv.Listener.Addr().String())
			},
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
}

var fileMapMockData = map[string][]byte{
	"setup.py": []byte(`from setuptools import setup

setup(
    name="project",
    install_requires=["numpy>=2.0,<3.0", "django"],
    dependency_links=["git+https://github.com/django/django.git@1.11.4#egg=django"],
)
`),
	"Pipfile": []byte(`[packages]
numpy = ">=2.0, !=2.5, <3.0"
django = {git = "https://github.com/django/django.git", ref = "1.11.4"}
scraper = {path = "./scraper"}

[dev-packages]
pytest = "*"
`),
	"Pipfile.lock": []byte(`{
    "default": {
        "numpy": {"version": "==2.4.1"},
        "django": {"git": "https://github.com/django/django.git", "ref": "e682b37"}
    },
    "develop": {"pytest": {"version": "==5.3.5"}}
}`),
}

func TestMemorySource(t *testing.T) {
	src := NewMemorySource(fileMapMockData)

	declared, err := src.Declared(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Declared{
		InstallRequires: []string{"numpy>=2.0,<3.0", "django"},
		DependencyLinks: []string{"git+https://github.com/django/django.git@1.11.4#egg=django"},
	}, declared)

	pkgs, err := src.Packages(context.Background(), PipfileType, parsers.Default)
	require.NoError(t, err)
	assert.Len(t, pkgs, 3)
	assert.Equal(t, ">=2.0, !=2.5, <3.0", pkgs["numpy"])

	dev, err := src.Packages(context.Background(), PipfileType, parsers.Develop)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"pytest": "*"}, dev)

	locked, err := src.Packages(context.Background(), LockfileType, parsers.Default)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"version": "==2.4.1"}, locked["numpy"])

	_, err = src.Packages(context.Background(), ManifestType("poetry"), parsers.Default)
	assert.EqualError(t, err, `unsupported manifest type "poetry"`)
}

func TestMemorySource_SourceErrors(t *testing.T) {
	src := NewMemorySource(map[string][]byte{})

	_, err := src.Declared(context.Background())
	assert.ErrorIs(t, err, parsers.ErrFileNotFound)
	assert.EqualError(t, err, "file setup.py not found")

	_, err = src.Packages(context.Background(), LockfileType, parsers.Default)
	assert.EqualError(t, err, "file Pipfile.lock not found")

	src = NewMemorySource(map[string][]byte{}, WithFileNames("", "Pipfile.prod", ""))
	_, err = src.Packages(context.Background(), PipfileType, parsers.Default)
	assert.EqualError(t, err, "file Pipfile.prod not found")
}

func TestSourceLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	src := NewMemorySource(fileMapMockData, WithLogger(zap.New(core)))

	_, err := src.Packages(context.Background(), PipfileType, parsers.Develop)
	require.NoError(t, err)

	entries := logs.FilterMessage("packages read").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Pipfile", entries[0].ContextMap()["file"])
	assert.EqualValues(t, 1, entries[0].ContextMap()["count"])
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	for name, content := range fileMapMockData {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o600))
	}

	src := NewDirSource(dir)
	declared, err := src.Declared(context.Background())
	require.NoError(t, err)
	pkgs, err := src.Packages(context.Background(), LockfileType, parsers.Default)
	require.NoError(t, err)

	checker, err := NewChecker(declared, pkgs)
	require.NoError(t, err)
	reports, err := checker.Check()
	require.NoError(t, err)
	assert.Equal(t, []Report{
		conflict("numpy", ">=2.0,<3.0", "==2.4.1", versioneer.Potential),
		{Kind: RefMismatch, Package: "django", Declared: "1.11.4", Authoritative: "e682b37"},
	}, reports)
}

func TestGitSource_Constructor(t *testing.T) {
	cl := configureClient(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call to server on git source construction")
	}))

	src, err := NewGitSource(cl, "git@github.com:hello/world.git", "")
	require.NoError(t, err)
	assert.NotNil(t, src)
}

func TestGitSource_Constructor_AddrErrors(t *testing.T) {
	testCases := []struct {
		RepoName      string
		ExpectedError string
	}{
		{"github.com/hello/world.git", `unsupported git repository format "github.com/hello/world.git"`},
		{"git@notgithub.com/hello/world.git", `git source "notgithub.com" is not supported`},
		{"http://github.com/hello_world.git", `unable to parse vendor from name "hello_world"`},
	}

	for _, tc := range testCases {
		t.Run(tc.RepoName, func(t *testing.T) {
			src, err := NewGitSource(nil, tc.RepoName, "")
			assert.EqualError(t, err, tc.ExpectedError)
			assert.Nil(t, src)
		})
	}
}

func TestGitSource_Methods(t *testing.T) {
	cl := configureClient(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/repos/hello/world/contents/")
		content, ok := fileMapMockData[name]
		if !ok || r.URL.Query().Get("ref") != "e682b37" {
			rw.WriteHeader(http.StatusNotFound)
			_, _ = rw.Write([]byte(`{"message": "Not Found"}`))
			return
		}
		_ = json.NewEncoder(rw).Encode(map[string]string{"type": "file", "content": string(content)})
	}))

	src, err := NewGitSource(cl, "https://github.com/hello/world.git", "e682b37")
	require.NoError(t, err)

	declared, err := src.Declared(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"numpy>=2.0,<3.0", "django"}, declared.InstallRequires)

	pkgs, err := src.Packages(context.Background(), PipfileType, parsers.Default)
	require.NoError(t, err)
	local, remote, err := SplitLocal(pkgs)
	require.NoError(t, err)
	assert.Equal(t, []string{"scraper"}, local)

	checker, err := NewChecker(declared, remote)
	require.NoError(t, err)
	reports, err := checker.Check()
	require.NoError(t, err)
	assert.Equal(t, []Report{
		conflict("numpy", ">=2.0,<3.0", ">=2.0,!=2.5,<3.0", versioneer.Potential),
	}, reports)

	missing, err := NewGitSource(cl, "https://github.com/hello/world.git", "master")
	require.NoError(t, err)
	_, err = missing.Declared(context.Background())
	assert.ErrorIs(t, err, parsers.ErrFileNotFound)
}

func TestSplitLocal(t *testing.T) {
	local, remote, err := SplitLocal(map[string]any{
		"b-local": map[string]any{"path": "."},
		"a-local": map[string]any{"path": "./a", "editable": true},
		"numpy":   "*",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-local", "b-local"}, local)
	assert.Equal(t, map[string]any{"numpy": "*"}, remote)

	_, _, err = SplitLocal(map[string]any{"numpy": 1})
	var ce *manifest.ClassifyError
	assert.True(t, errors.As(err, &ce))
}

func TestNewGitHubClient(t *testing.T) {
	assert.Nil(t, NewGitHubClient(context.Background(), ""))
	assert.NotNil(t, NewGitHubClient(context.Background(), "ghp_token"))
}
