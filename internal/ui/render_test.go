package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dephub/pipcheck/internal/config"
	"github.com/dephub/pipcheck/pipcheck"
	"github.com/dephub/pipcheck/providers/versioneer"
)

var testReports = []pipcheck.Report{
	{Kind: pipcheck.VersionConflict, Package: "numpy", Verdict: versioneer.Disjoint, Declared: "<=2.0", Authoritative: ">=3.0"},
	{Kind: pipcheck.MissingRequirement, Package: "requests"},
}

func TestRenderer_ReportsText(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewRenderer(&out, config.FormatText, true).Reports(testReports))

	assert.Equal(t, "✗ numpy (version_conflict)\n"+
		"  package 'numpy' has version string: <=2.0 in setup.py, which is disjoint with >=3.0 in pipfile\n"+
		"✗ requests (missing_requirement)\n"+
		"  package requests in pipfile but not in install_requires\n", out.String())
}

func TestRenderer_ReportsEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewRenderer(&out, config.FormatText, true).Reports(nil))
	assert.Equal(t, "✓ "+SuccessMessage+"\n", out.String())
}

func TestRenderer_ReportsJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewRenderer(&out, config.FormatJSON, false).Reports(testReports))

	var views []ReportView
	require.NoError(t, json.Unmarshal(out.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, ReportView{
		Package:       "numpy",
		Kind:          "version_conflict",
		Verdict:       "DISJOINT",
		Declared:      "<=2.0",
		Authoritative: ">=3.0",
		Message:       "package 'numpy' has version string: <=2.0 in setup.py, which is disjoint with >=3.0 in pipfile",
	}, views[0])
	assert.Empty(t, views[1].Verdict)
}

func TestRenderer_ReportsYAML(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, config.FormatYAML, false)
	r.Formatter = pipcheck.Formatter{Declared: "setup.py", Authoritative: "Pipfile.lock"}
	require.NoError(t, r.Reports(testReports[1:]))

	var views []ReportView
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "package requests in Pipfile.lock but not in install_requires", views[0].Message)
}

func TestRenderer_ReportsBadReport(t *testing.T) {
	var out bytes.Buffer
	err := NewRenderer(&out, config.FormatText, true).Reports([]pipcheck.Report{
		{Kind: pipcheck.VersionConflict, Package: "numpy", Verdict: versioneer.Identical},
	})
	assert.EqualError(t, err, "unexpected verdict IDENTICAL for package numpy")
	assert.Empty(t, out.String())
}

func TestRenderer_Exported(t *testing.T) {
	exported := pipcheck.Exported{
		InstallRequires: []string{"django", "numpy>=2.0"},
		DependencyLinks: []string{"git+https://github.com/django/django.git@1.11.4#egg=django"},
		ExtrasRequire:   map[string][]string{"dev": {"pytest==5.3.5"}},
		Skipped:         []string{"scraper"},
	}

	var out bytes.Buffer
	require.NoError(t, NewRenderer(&out, config.FormatText, true).Exported(exported))
	assert.Equal(t, `install_requires=[
    "django",
    "numpy>=2.0",
],
dependency_links=[
    "git+https://github.com/django/django.git@1.11.4#egg=django",
],
extras_require={
    "dev": [
        "pytest==5.3.5",
    ],
},
# – local package scraper skipped
`, out.String())

	out.Reset()
	require.NoError(t, NewRenderer(&out, config.FormatYAML, true).Exported(pipcheck.Exported{InstallRequires: []string{"numpy"}}))
	assert.Equal(t, "install_requires:\n  - numpy\n", out.String())
}

func TestRenderer_Error(t *testing.T) {
	var out bytes.Buffer
	NewRenderer(&out, config.FormatText, true).Error(errors.New("boom"))
	assert.Equal(t, "✗ boom\n", out.String())
}
