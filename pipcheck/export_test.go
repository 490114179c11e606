package pipcheck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dephub/pipcheck/providers/manifest"
)

var exportPackages = map[string]any{
	"numpy":      map[string]any{"version": "==1.18.1", "markers": "python_version >= '3.6'", "hashes": []any{"sha256:07"}},
	"requests":   map[string]any{"version": "*", "extras": []any{"security", "socks"}},
	"colorama":   "*",
	"pandas":     ">=1.0, <2.0",
	"django":     map[string]any{"git": "https://github.com/django/django.git", "ref": "1.11.4", "editable": true},
	"flask":      map[string]any{"hg": "https://hg.example.com/flask"},
	"django-cms": map[string]any{"file": "https://github.com/divio/django-cms/archive/release/3.4.x.zip"},
	"scraper":    map[string]any{"path": "./scraper", "editable": true},
}

func TestExport(t *testing.T) {
	exported, err := Export(exportPackages, true)
	require.NoError(t, err)
	assert.Equal(t, Exported{
		InstallRequires: []string{
			"colorama",
			"django",
			"flask",
			"numpy==1.18.1; python_version >= '3.6'",
			"pandas>=1.0, <2.0",
			"requests[security,socks]",
		},
		DependencyLinks: []string{
			"git+https://github.com/django/django.git@1.11.4#egg=django",
			"https://github.com/divio/django-cms/archive/release/3.4.x.zip",
			"hg+https://hg.example.com/flask#egg=flask",
		},
		Skipped: []string{"scraper"},
	}, exported)

	exported, err = Export(exportPackages, false)
	require.NoError(t, err)
	assert.Equal(t, Exported{
		InstallRequires: []string{
			"colorama",
			"django @ git+https://github.com/django/django.git@1.11.4",
			"django-cms @ https://github.com/divio/django-cms/archive/release/3.4.x.zip",
			"flask @ hg+https://hg.example.com/flask",
			"numpy==1.18.1; python_version >= '3.6'",
			"pandas>=1.0, <2.0",
			"requests[security,socks]",
		},
		Skipped: []string{"scraper"},
	}, exported)
}

// Exported dependencies must always pass the check against their own source.
func TestExport_ChecksClean(t *testing.T) {
	for _, useLinks := range []bool{true, false} {
		exported, err := Export(exportPackages, useLinks)
		require.NoError(t, err)

		checker, err := NewChecker(
			Declared{InstallRequires: exported.InstallRequires, DependencyLinks: exported.DependencyLinks},
			exportPackages,
			WithStrict(true),
		)
		require.NoError(t, err)

		reports, err := checker.Check()
		require.NoError(t, err)
		assert.Emptyf(t, reports, "dependency links: %v", useLinks)
	}
}

func TestExport_Errors(t *testing.T) {
	_, err := Export(map[string]any{"broken": []any{"==1.0"}}, false)
	var ce *manifest.ClassifyError
	assert.True(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), "can not export package broken")
}

func TestExported_WithExtra(t *testing.T) {
	base := Exported{InstallRequires: []string{"numpy"}}
	dev := Exported{
		InstallRequires: []string{"pytest==5.3.5", "tools"},
		DependencyLinks: []string{"git+https://github.com/o/tools.git#egg=tools"},
		Skipped:         []string{"scraper"},
	}

	assert.Equal(t, Exported{
		InstallRequires: []string{"numpy"},
		DependencyLinks: []string{"git+https://github.com/o/tools.git#egg=tools"},
		ExtrasRequire:   map[string][]string{"dev": {"pytest==5.3.5", "tools"}},
		Skipped:         []string{"scraper"},
	}, base.WithExtra("dev", dev))
	assert.Nil(t, base.ExtrasRequire)

	merged := base.WithExtra("dev", Exported{InstallRequires: []string{}})
	assert.Nil(t, merged.DependencyLinks)
	assert.Equal(t, map[string][]string{"dev": {}}, merged.ExtrasRequire)
}
