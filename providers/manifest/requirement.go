package manifest

import (
	"regexp"
	"strings"
	"unicode"
)

// canonicalRgx matches runs of name separators collapsed by PEP 503.
var canonicalRgx = regexp.MustCompile(`[-_.]+`)

// Requirement is a split setup.py install_requires item.
type Requirement struct {
	Name      string   // Package name without extras (e.g. 'requests')
	Extras    []string // Extras (e.g. 'security' for 'requests[security]')
	Specifier string   // Whitespace free version range (e.g. '>=2.0,<3.0'), empty for any version
	Markers   string   // Environment markers, passed through untouched
	URL       string   // Direct reference of 'name @ url' requirements
}

// ParseRequirement splits a setup.py requirement string, e.g.
// "numpy>=2.0, <3.0; os_name='nt'" into name 'numpy', specifier '>=2.0,<3.0' and
// markers "os_name='nt'".
func ParseRequirement(line string) Requirement {
	head, markers, _ := strings.Cut(line, ";")
	req := Requirement{Markers: strings.TrimSpace(markers)}

	if at := strings.IndexByte(head, '@'); at != -1 && strings.IndexAny(head[:at], "=<>!~") == -1 {
		req.Name, req.Extras = splitExtras(stripSpaces(head[:at]))
		req.URL = strings.TrimSpace(head[at+1:])
		return req
	}

	var name, specifier strings.Builder
	metOperator := false
	for _, c := range head {
		if strings.ContainsRune("=<>!~", c) {
			metOperator = true
		}
		if metOperator {
			specifier.WriteRune(c)
		} else {
			name.WriteRune(c)
		}
	}
	req.Name, req.Extras = splitExtras(stripSpaces(name.String()))
	req.Specifier = stripSpaces(specifier.String())
	return req
}

// CanonicalName normalizes a package name for comparison ('Django_CMS' and 'django-cms' are equal).
func CanonicalName(name string) string {
	return canonicalRgx.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

func splitExtras(name string) (string, []string) {
	open := strings.IndexByte(name, '[')
	if open == -1 {
		return name, nil
	}
	var extras []string
	inner := strings.TrimSuffix(name[open+1:], "]")
	for _, e := range strings.Split(inner, ",") {
		if e != "" {
			extras = append(extras, e)
		}
	}
	return name[:open], extras
}

// Fast way to strip all whitespaces from a string
func stripSpaces(str string) string {
	var b strings.Builder
	b.Grow(len(str))
	for _, ch := range str {
		if !unicode.IsSpace(ch) {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
