package pipcheck

import (
	"fmt"

	"github.com/dephub/pipcheck/providers/versioneer"
)

// ReportKind represents a discrepancy kind flag.
type ReportKind int

// Available discrepancy kinds
const (
	// VersionConflict - declared and authoritative version ranges differ (see Report.Verdict).
	VersionConflict ReportKind = iota
	// MissingVcsKey - the authoritative vcs entry uses another version control system than the link.
	MissingVcsKey
	// URLMismatch - repository urls differ.
	URLMismatch
	// RefMissingInDeclared - only the authoritative entry pins a ref.
	RefMissingInDeclared
	// RefMissingInAuthoritative - only the dependency link pins a ref.
	RefMissingInAuthoritative
	// RefMismatch - refs differ.
	RefMismatch
	// NotVcs - a dependency link names a package that is not a vcs package in the authoritative manifest.
	NotVcs
	// MissingRequirement - an authoritative index package is absent from install_requires.
	MissingRequirement
	// MissingVcsLink - an authoritative vcs package is absent from dependency_links.
	MissingVcsLink
	// MissingFileLink - an authoritative remote file is absent from dependency_links.
	MissingFileLink
)

var reportKindNames = map[ReportKind]string{
	VersionConflict:           "version_conflict",
	MissingVcsKey:             "missing_vcs_key",
	URLMismatch:               "url_mismatch",
	RefMissingInDeclared:      "ref_missing_in_declared",
	RefMissingInAuthoritative: "ref_missing_in_authoritative",
	RefMismatch:               "ref_mismatch",
	NotVcs:                    "not_vcs",
	MissingRequirement:        "missing_requirement",
	MissingVcsLink:            "missing_vcs_link",
	MissingFileLink:           "missing_file_link",
}

func (k ReportKind) String() string {
	if name, ok := reportKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ReportKind(%d)", int(k))
}

// Report represents one discrepancy between the declared and the authoritative manifests.
//
// Declared and Authoritative hold the compared values: version ranges for version conflicts,
// urls, refs or the vcs name for link reports, the file url for missing file links.
type Report struct {
	Kind          ReportKind
	Package       string
	Verdict       versioneer.Verdict // Set for VersionConflict reports only
	Declared      string
	Authoritative string
}

// Formatter renders reports into human readable messages.
type Formatter struct {
	Declared      string // Declared manifest label, 'setup.py' by default
	Authoritative string // Authoritative manifest label, 'pipfile' by default
}

// DefaultFormatter labels manifests as 'setup.py' and 'pipfile'.
var DefaultFormatter = Formatter{Declared: "setup.py", Authoritative: "pipfile"}

// Format returns the message of a report. It fails on unknown kinds and on version
// conflicts carrying a verdict that is never reported.
func (f Formatter) Format(r Report) (string, error) {
	declared, auth := f.Declared, f.Authoritative
	if declared == "" {
		declared = DefaultFormatter.Declared
	}
	if auth == "" {
		auth = DefaultFormatter.Authoritative
	}

	switch r.Kind {
	case VersionConflict:
		var relation string
		switch r.Verdict {
		case versioneer.Potential:
			relation = "potentially violates"
		case versioneer.Disjoint:
			relation = "is disjoint with"
		case versioneer.Compatible:
			relation = "is a subset of"
		default:
			return "", fmt.Errorf("unexpected verdict %s for package %s", r.Verdict, r.Package)
		}
		return fmt.Sprintf("package '%s' has version string: %s in %s, which %s %s in %s",
			r.Package, displayRange(r.Declared), declared, relation, displayRange(r.Authoritative), auth), nil
	case MissingVcsKey:
		return fmt.Sprintf("%s lacks '%s' key for package %s", auth, r.Declared, r.Package), nil
	case URLMismatch:
		return fmt.Sprintf("%s url %s is different than %s in dependency links for package %s",
			auth, r.Authoritative, r.Declared, r.Package), nil
	case RefMissingInDeclared:
		return fmt.Sprintf("branch/version %s listed in %s but not specified in dependency_links for package %s",
			r.Authoritative, auth, r.Package), nil
	case RefMissingInAuthoritative:
		return fmt.Sprintf("branch/version %s listed in dependency_links but not in %s for package %s",
			r.Declared, auth, r.Package), nil
	case RefMismatch:
		return fmt.Sprintf("branch/version %s listed in dependency_links is different than %s listed in %s for package %s",
			r.Declared, r.Authoritative, auth, r.Package), nil
	case NotVcs:
		return fmt.Sprintf("%s package %s specified in dependency_links is not a vcs package in %s",
			r.Declared, r.Package, auth), nil
	case MissingRequirement:
		return fmt.Sprintf("package %s in %s but not in install_requires", r.Package, auth), nil
	case MissingVcsLink:
		return fmt.Sprintf("vcs package %s in %s but not in dependency_links", r.Package, auth), nil
	case MissingFileLink:
		return fmt.Sprintf("the link of package %s is in %s but not in dependency_links", r.Package, auth), nil
	}
	return "", fmt.Errorf("unknown report kind %s", r.Kind)
}

// FormatAll renders every report, stopping at the first failure.
func (f Formatter) FormatAll(reports []Report) ([]string, error) {
	res := make([]string, 0, len(reports))
	for _, r := range reports {
		msg, err := f.Format(r)
		if err != nil {
			return nil, err
		}
		res = append(res, msg)
	}
	return res, nil
}

// displayRange shows empty ranges as the '*' wildcard.
func displayRange(r string) string {
	if r == "" {
		return "*"
	}
	return r
}
