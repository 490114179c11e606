package parsers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dephub/pipcheck/providers/fetchers"
)

func TestPipfileParserPackagesMethod(t *testing.T) {
	bf := fetchers.ByteMapFetcher{Files: map[string][]byte{
		"Pipfile": []byte(pipfileFixture),
	}}
	parser := NewPipfileParser(bf, "")

	pkgs, err := parser.Packages(context.Background(), Default)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"numpy":         "~=1.2",
		"python-opencv": "==4.1.0",
		"requests":      map[string]any{"version": "*", "extras": []any{"security"}},
		"django":        map[string]any{"git": "https://github.com/django/django.git", "ref": "1.11.4", "editable": true},
		"django-cms":    map[string]any{"file": "https://github.com/divio/django-cms/archive/release/3.4.x.zip"},
		"phubscraper":   map[string]any{"path": "./phubscraper", "editable": true},
	}, pkgs)

	dev, err := parser.Packages(context.Background(), Develop)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"pytest": "*"}, dev)
}

func TestPipfileParserPackagesMethod_Errors(t *testing.T) {
	bf := fetchers.ByteMapFetcher{Files: map[string][]byte{
		"Pipfile.broken": []byte("[packages\nnumpy = "),
		"Pipfile.flat":   []byte("packages = \"numpy\"\n"),
		"Pipfile.empty":  []byte("[requires]\npython_version = \"3.8\"\n"),
	}}

	_, err := NewPipfileParser(bf, "").Packages(context.Background(), Default)
	var mf *MissingFileError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, "file Pipfile not found", err.Error())
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = NewPipfileParser(bf, "Pipfile.broken").Packages(context.Background(), Default)
	assert.Error(t, err)

	_, err = NewPipfileParser(bf, "Pipfile.flat").Packages(context.Background(), Default)
	assert.EqualError(t, err, "section 'packages' of Pipfile.flat is not a table")

	pkgs, err := NewPipfileParser(bf, "Pipfile.empty").Packages(context.Background(), Default)
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

func TestLockfileParserPackagesMethod(t *testing.T) {
	bf := fetchers.ByteMapFetcher{Files: map[string][]byte{
		"Pipfile.lock": []byte(lockfileFixture),
	}}
	parser := NewLockfileParser(bf, "")

	pkgs, err := parser.Packages(context.Background(), Default)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"numpy": map[string]any{
			"hashes":  []any{"sha256:0778076e764e146d3078b17c24c4d89e0ecd4ac5401beff8e1c87879043a0633"},
			"index":   "pypi",
			"version": "==1.18.1",
		},
		"django": map[string]any{"git": "https://github.com/django/django.git", "ref": "e682b37"},
	}, pkgs)

	dev, err := parser.Packages(context.Background(), Develop)
	require.NoError(t, err)
	assert.Empty(t, dev)

	_, err = NewLockfileParser(fetchers.ByteMapFetcher{Files: map[string][]byte{"Pipfile.lock": []byte("{")}}, "").
		Packages(context.Background(), Default)
	assert.Error(t, err)
}

var pipfileFixture = `[[source]]
name = "pypi"
url = "https://pypi.org/simple"
verify_ssl = true

[dev-packages]
pytest = "*"

[packages]
numpy = "~=1.2"
python-opencv = "==4.1.0"
requests = {version = "*", extras = ["security"]}
django = {git = "https://github.com/django/django.git", ref = "1.11.4", editable = true}
django-cms = {file = "https://github.com/divio/django-cms/archive/release/3.4.x.zip"}
phubscraper = {path = "./phubscraper", editable = true}

[requires]
python_version = "3.7"
`

var lockfileFixture = `{
    "_meta": {
        "hash": {"sha256": "8d9e0c1f"},
        "pipfile-spec": 6,
        "requires": {"python_version": "3.7"}
    },
    "default": {
        "numpy": {
            "hashes": ["sha256:0778076e764e146d3078b17c24c4d89e0ecd4ac5401beff8e1c87879043a0633"],
            "index": "pypi",
            "version": "==1.18.1"
        },
        "django": {
            "git": "https://github.com/django/django.git",
            "ref": "e682b37"
        }
    },
    "develop": {}
}`
