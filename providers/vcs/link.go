/*
Package vcs decodes and encodes version control dependency links as used by
setuptools dependency_links, e.g.

	git+https://github.com/requests/requests.git@v2.20.1#egg=requests
*/
package vcs

import (
	"fmt"
	"strings"
)

// Kind is a version control system flag.
type Kind string

// Supported version control systems, in the order they are looked up in manifest tables.
const (
	Git        = Kind("git")
	Bazaar     = Kind("bzr")
	Subversion = Kind("svn")
	Mercurial  = Kind("hg")
)

// Kinds lists every supported version control system.
var Kinds = []Kind{Git, Bazaar, Subversion, Mercurial}

const eggPrefix = "egg="

// Link represents a decoded '<vcs>+<url>[@<ref>]#egg=<name>' link.
type Link struct {
	VCS  Kind
	URL  string
	Ref  string // Branch, tag or commit; empty when the link carries none
	Name string
}

// LinkDecodeError is returned for malformed links.
type LinkDecodeError struct {
	Link   string
	Reason string
}

func (e *LinkDecodeError) Error() string {
	return fmt.Sprintf("unable to decode vcs link %q: %s", e.Link, e.Reason)
}

// IsLink reports whether s starts with one of the supported '<vcs>+' prefixes.
func IsLink(s string) bool {
	for _, k := range Kinds {
		if strings.HasPrefix(s, string(k)+"+") {
			return true
		}
	}
	return false
}

// Decode parses a dependency link.
//
// The vcs ends at the first '+', the egg fragment starts at the last '#'. Between them an
// '@' separates the ref from the url unless a '/' follows it, in which case the '@' belongs
// to the url (e.g. 'git+ssh://git@github.com/owner/repo.git').
func Decode(link string) (Link, error) {
	plus := strings.IndexByte(link, '+')
	if plus == -1 {
		return Link{}, &LinkDecodeError{Link: link, Reason: "no '+' between vcs and url"}
	}
	hash := strings.LastIndexByte(link, '#')
	if hash == -1 || hash < plus {
		return Link{}, &LinkDecodeError{Link: link, Reason: "missing '#egg=' fragment"}
	}
	fragment := link[hash+1:]
	if !strings.HasPrefix(fragment, eggPrefix) {
		return Link{}, &LinkDecodeError{Link: link, Reason: "fragment does not start with 'egg='"}
	}

	l := Link{VCS: Kind(link[:plus]), Name: eggName(fragment)}
	l.URL, l.Ref = splitRef(link[plus+1 : hash])

	switch {
	case l.VCS == "":
		return Link{}, &LinkDecodeError{Link: link, Reason: "empty vcs"}
	case l.URL == "":
		return Link{}, &LinkDecodeError{Link: link, Reason: "empty url"}
	case l.Name == "":
		return Link{}, &LinkDecodeError{Link: link, Reason: "empty package name"}
	}
	return l, nil
}

// Encode formats the link back into its '<vcs>+<url>[@<ref>]#egg=<name>' form.
func Encode(l Link) string {
	var b strings.Builder
	b.WriteString(string(l.VCS))
	b.WriteByte('+')
	b.WriteString(l.URL)
	if l.Ref != "" {
		b.WriteByte('@')
		b.WriteString(l.Ref)
	}
	b.WriteByte('#')
	b.WriteString(eggPrefix)
	b.WriteString(l.Name)
	return b.String()
}

func (l Link) String() string {
	return Encode(l)
}

// splitRef scans span backwards for an '@' that is not followed by a '/'.
func splitRef(span string) (string, string) {
	for i := len(span) - 1; i >= 0; i-- {
		switch span[i] {
		case '/':
			return span, ""
		case '@':
			return span[:i], span[i+1:]
		}
	}
	return span, ""
}

// eggName drops additional fragment parameters (e.g. '&subdirectory=...').
func eggName(fragment string) string {
	name := strings.TrimPrefix(fragment, eggPrefix)
	if amp := strings.IndexByte(name, '&'); amp != -1 {
		name = name[:amp]
	}
	return name
}
