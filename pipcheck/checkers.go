package pipcheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dephub/pipcheck/providers/manifest"
	"github.com/dephub/pipcheck/providers/vcs"
	"github.com/dephub/pipcheck/providers/versioneer"
)

// Declared represents the dependency keywords of setup.py.
type Declared struct {
	InstallRequires []string `json:"install_requires" yaml:"install_requires"`
	DependencyLinks []string `json:"dependency_links" yaml:"dependency_links"`
}

// Option configures a Checker.
type Option func(*Checker)

// WithStrict makes the checker report declared ranges that are compatible with,
// but not identical to, the authoritative ones.
func WithStrict(strict bool) Option {
	return func(c *Checker) {
		c.strict = strict
	}
}

// authEntry is a classified authoritative package.
type authEntry struct {
	name  string
	entry manifest.Entry
}

// Checker compares setup.py dependencies against Pipfile or Pipfile.lock packages.
// Checks are read-only and may run in any order or in parallel.
type Checker struct {
	requirements []manifest.Requirement
	links        []string
	entries      map[string]authEntry // keyed by canonical name
	strict       bool
}

// NewChecker classifies the authoritative packages and splits the declared requirements.
// It fails with *manifest.ClassifyError on authoritative entries of unknown shape.
func NewChecker(declared Declared, authoritative map[string]any, opts ...Option) (*Checker, error) {
	c := &Checker{entries: make(map[string]authEntry, len(authoritative))}
	for _, opt := range opts {
		opt(c)
	}

	names := make([]string, 0, len(authoritative))
	for name := range authoritative {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry, err := manifest.Classify(authoritative[name])
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", name, err)
		}
		key := manifest.CanonicalName(name)
		if _, dup := c.entries[key]; dup {
			continue
		}
		c.entries[key] = authEntry{name: name, entry: entry}
	}

	for _, line := range declared.InstallRequires {
		c.requirements = append(c.requirements, manifest.ParseRequirement(line))
	}
	sort.SliceStable(c.requirements, func(i, j int) bool {
		return manifest.CanonicalName(c.requirements[i].Name) < manifest.CanonicalName(c.requirements[j].Name)
	})

	c.links = append(c.links, declared.DependencyLinks...)
	// 'name @ vcs+url' requirements are links without the egg fragment
	for _, req := range c.requirements {
		if req.URL != "" && vcs.IsLink(req.URL) {
			c.links = append(c.links, req.URL+"#egg="+req.Name)
		}
	}

	return c, nil
}

// Check runs every check and concatenates their reports.
func (c *Checker) Check() ([]Report, error) {
	checks := []func() ([]Report, error){
		c.VersionConflicts,
		c.LinkConflicts,
		c.MissingRequirements,
		c.MissingLinks,
	}

	res := []Report{}
	for _, check := range checks {
		reports, err := check()
		if err != nil {
			return nil, err
		}
		res = append(res, reports...)
	}
	return res, nil
}

// VersionConflicts compares install_requires ranges against authoritative index packages.
//
// Compatible ranges are reported in strict mode only.
func (c *Checker) VersionConflicts() ([]Report, error) {
	res := []Report{}
	for _, req := range c.requirements {
		if req.URL != "" {
			continue
		}
		auth, ok := c.entries[manifest.CanonicalName(req.Name)]
		if !ok {
			continue
		}

		var authRange string
		switch e := auth.entry.(type) {
		case manifest.PyPiEntry:
			authRange = e.Version
		case manifest.LocalEntry:
			continue
		case manifest.VcsEntry, manifest.FileEntry:
			if req.Specifier == "" {
				continue
			}
			return nil, &ClassificationMismatchError{Package: req.Name, Expected: manifest.PyPiKind, Actual: e.Kind()}
		}

		declared, err := versioneer.ParseConstraints(req.Specifier)
		if err != nil {
			return nil, fmt.Errorf("package %s in install_requires: %w", req.Name, err)
		}
		authoritative, err := versioneer.ParseConstraints(authRange)
		if err != nil {
			return nil, fmt.Errorf("package %s in pipfile: %w", auth.name, err)
		}

		verdict := versioneer.Analyze(declared, authoritative)
		if verdict == versioneer.Identical || (verdict == versioneer.Compatible && !c.strict) {
			continue
		}
		res = append(res, Report{
			Kind:          VersionConflict,
			Package:       req.Name,
			Verdict:       verdict,
			Declared:      req.Specifier,
			Authoritative: strings.Join(strings.Fields(authRange), ""),
		})
	}
	return res, nil
}

// LinkConflicts compares the vcs dependency links against authoritative vcs packages.
// A package yields one report per differing field.
func (c *Checker) LinkConflicts() ([]Report, error) {
	links, err := c.vcsLinks()
	if err != nil {
		return nil, err
	}

	res := []Report{}
	for _, link := range links {
		auth, ok := c.entries[manifest.CanonicalName(link.Name)]
		if !ok {
			continue
		}

		entry, ok := auth.entry.(manifest.VcsEntry)
		if !ok {
			res = append(res, Report{Kind: NotVcs, Package: link.Name, Declared: string(link.VCS)})
			continue
		}
		if entry.VCS != link.VCS {
			res = append(res, Report{Kind: MissingVcsKey, Package: link.Name, Declared: string(link.VCS), Authoritative: string(entry.VCS)})
			continue
		}

		if entry.URL != link.URL {
			res = append(res, Report{Kind: URLMismatch, Package: link.Name, Declared: link.URL, Authoritative: entry.URL})
		}

		switch {
		case link.Ref == "" && entry.Ref != "":
			res = append(res, Report{Kind: RefMissingInDeclared, Package: link.Name, Authoritative: entry.Ref})
		case link.Ref != "" && entry.Ref == "":
			res = append(res, Report{Kind: RefMissingInAuthoritative, Package: link.Name, Declared: link.Ref})
		case link.Ref != entry.Ref:
			res = append(res, Report{Kind: RefMismatch, Package: link.Name, Declared: link.Ref, Authoritative: entry.Ref})
		}
	}
	return res, nil
}

// MissingRequirements reports authoritative index packages absent from install_requires.
func (c *Checker) MissingRequirements() ([]Report, error) {
	declared := make(map[string]bool, len(c.requirements))
	for _, req := range c.requirements {
		declared[manifest.CanonicalName(req.Name)] = true
	}

	res := []Report{}
	for _, key := range c.sortedEntries() {
		auth := c.entries[key]
		if _, ok := auth.entry.(manifest.PyPiEntry); !ok || declared[key] {
			continue
		}
		res = append(res, Report{Kind: MissingRequirement, Package: auth.name})
	}
	return res, nil
}

// MissingLinks reports authoritative vcs packages and remote files absent from dependency_links.
func (c *Checker) MissingLinks() ([]Report, error) {
	links, err := c.vcsLinks()
	if err != nil {
		return nil, err
	}
	vcsNames := make(map[string]bool, len(links))
	for _, link := range links {
		vcsNames[manifest.CanonicalName(link.Name)] = true
	}
	fileLinks := make(map[string]bool)
	for _, link := range c.links {
		if !vcs.IsLink(link) {
			fileLinks[link] = true
		}
	}
	for _, req := range c.requirements {
		if req.URL != "" && !vcs.IsLink(req.URL) {
			fileLinks[req.URL] = true
		}
	}

	res := []Report{}
	for _, key := range c.sortedEntries() {
		auth := c.entries[key]
		switch e := auth.entry.(type) {
		case manifest.VcsEntry:
			if !vcsNames[key] {
				res = append(res, Report{Kind: MissingVcsLink, Package: auth.name, Authoritative: e.URL})
			}
		case manifest.FileEntry:
			if !fileLinks[e.URL] {
				res = append(res, Report{Kind: MissingFileLink, Package: auth.name, Authoritative: e.URL})
			}
		}
	}
	return res, nil
}

// vcsLinks decodes every declared vcs link, ordered by package name.
func (c *Checker) vcsLinks() ([]vcs.Link, error) {
	res := []vcs.Link{}
	for _, raw := range c.links {
		if !vcs.IsLink(raw) {
			continue
		}
		link, err := vcs.Decode(raw)
		if err != nil {
			return nil, err
		}
		res = append(res, link)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return manifest.CanonicalName(res[i].Name) < manifest.CanonicalName(res[j].Name)
	})
	return res, nil
}

func (c *Checker) sortedEntries() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
