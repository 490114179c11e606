package pipcheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dephub/pipcheck/providers/manifest"
	"github.com/dephub/pipcheck/providers/vcs"
)

// Exported holds setup() keyword values rendered from Pipfile or Pipfile.lock packages.
type Exported struct {
	InstallRequires []string            `json:"install_requires" yaml:"install_requires"`
	DependencyLinks []string            `json:"dependency_links,omitempty" yaml:"dependency_links,omitempty"`
	ExtrasRequire   map[string][]string `json:"extras_require,omitempty" yaml:"extras_require,omitempty"`
	Skipped         []string            `json:"skipped,omitempty" yaml:"skipped,omitempty"` // Local packages, they have no setup.py form
}

// Export renders packages into install_requires and dependency_links values, ordered by name.
//
// With useDependencyLinks vcs packages become '<vcs>+<url>[@<ref>]#egg=<name>' dependency links
// and remote files go to dependency_links as well; otherwise both are written as PEP 508 direct
// references into install_requires.
func Export(packages map[string]any, useDependencyLinks bool) (Exported, error) {
	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return manifest.CanonicalName(names[i]) < manifest.CanonicalName(names[j])
	})

	res := Exported{InstallRequires: []string{}}
	for _, name := range names {
		entry, err := manifest.Classify(packages[name])
		if err != nil {
			return Exported{}, fmt.Errorf("can not export package %s: %w", name, err)
		}

		switch e := entry.(type) {
		case manifest.PyPiEntry:
			res.InstallRequires = append(res.InstallRequires, requirementLine(name, e))
		case manifest.VcsEntry:
			link := vcs.Link{VCS: e.VCS, URL: e.URL, Ref: e.Ref, Name: name}
			if useDependencyLinks {
				res.DependencyLinks = append(res.DependencyLinks, link.String())
				res.InstallRequires = append(res.InstallRequires, name)
				continue
			}
			ref := ""
			if e.Ref != "" {
				ref = "@" + e.Ref
			}
			res.InstallRequires = append(res.InstallRequires, fmt.Sprintf("%s @ %s+%s%s", name, e.VCS, e.URL, ref))
		case manifest.FileEntry:
			if useDependencyLinks {
				res.DependencyLinks = append(res.DependencyLinks, e.URL)
				continue
			}
			res.InstallRequires = append(res.InstallRequires, fmt.Sprintf("%s @ %s", name, e.URL))
		case manifest.LocalEntry:
			res.Skipped = append(res.Skipped, name)
		}
	}
	return res, nil
}

// WithExtra files the requirements of extra under extras_require[name]. Its dependency links
// and skipped packages are merged into e.
func (e Exported) WithExtra(name string, extra Exported) Exported {
	res := Exported{
		InstallRequires: e.InstallRequires,
		DependencyLinks: append(append([]string(nil), e.DependencyLinks...), extra.DependencyLinks...),
		ExtrasRequire:   make(map[string][]string, len(e.ExtrasRequire)+1),
		Skipped:         append(append([]string(nil), e.Skipped...), extra.Skipped...),
	}
	for k, v := range e.ExtrasRequire {
		res.ExtrasRequire[k] = v
	}
	res.ExtrasRequire[name] = extra.InstallRequires
	if len(res.DependencyLinks) == 0 {
		res.DependencyLinks = nil
	}
	if len(res.Skipped) == 0 {
		res.Skipped = nil
	}
	return res
}

// requirementLine formats an index package as 'name[extras]<range>; markers'.
func requirementLine(name string, e manifest.PyPiEntry) string {
	var b strings.Builder
	b.WriteString(name)
	if len(e.Extras) != 0 {
		b.WriteString("[" + strings.Join(e.Extras, ",") + "]")
	}
	if v := strings.TrimSpace(e.Version); v != "" && v != "*" {
		b.WriteString(v)
	}
	if e.Markers != "" {
		b.WriteString("; " + e.Markers)
	}
	return b.String()
}
