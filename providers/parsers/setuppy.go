package parsers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/dephub/pipcheck/providers/fetchers"
)

var (
	ErrSyntax      = errors.New("invalid python syntax")
	ErrNoSetupCall = errors.New("no setup() call found")
	ErrNotAList    = errors.New("keyword value is not a list")
	ErrNotAString  = errors.New("list element is not a string constant")
)

// setup() keywords holding dependencies
const (
	installRequires = "install_requires"
	dependencyLinks = "dependency_links"
)

// NewSetupPyParser constructs setup.py parser.
// If 'filename' parameter is an empty string - 'setup.py' will be used instead.
func NewSetupPyParser(fetcher fetchers.FileFetcher, filename string) DeclarationParser {
	if filename == "" {
		filename = "setup.py"
	}
	return &SetupPyParser{fetcher: fetcher, SourceName: filename}
}

// SetupPyParser reads dependency keywords out of the setup.py syntax tree without executing it.
// Only list (or tuple) literals of string constants are understood.
type SetupPyParser struct {
	fetcher fetchers.FileFetcher
	// SourceName is the source filename (e.g. 'setup.py')
	SourceName string
}

// Declared returns install_requires and dependency_links of the first setup() call.
func (p SetupPyParser) Declared(ctx context.Context) (SetupArgs, error) {
	b, err := fetch(ctx, p.fetcher, p.SourceName)
	if err != nil {
		return SetupArgs{}, err
	}

	args, err := parseSetupPy(ctx, b)
	if err != nil {
		return SetupArgs{}, fmt.Errorf("unable to parse %s: %w", p.SourceName, err)
	}
	return args, nil
}

// parseSetupPy locates the first setup() call of the module and reads its dependency keywords.
func parseSetupPy(ctx context.Context, src []byte) (SetupArgs, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return SetupArgs{}, err
	}

	root := tree.RootNode()
	if root.HasError() {
		return SetupArgs{}, fmt.Errorf("%w (line %d)", ErrSyntax, firstError(root).StartPoint().Row+1)
	}
	call := findSetupCall(root, src)
	if call == nil {
		return SetupArgs{}, ErrNoSetupCall
	}
	return setupKeywords(call, src)
}

// firstError returns the first ERROR or MISSING node below n, or n itself.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c != nil && (c.HasError() || c.IsMissing()) {
			return firstError(c)
		}
	}
	return n
}

// findSetupCall walks the tree in source order looking for 'setup(...)' or 'x.setup(...)'.
func findSetupCall(n *sitter.Node, src []byte) *sitter.Node {
	if n.Type() == "call" && isSetupFunc(n.ChildByFieldName("function"), src) {
		return n
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if call := findSetupCall(n.NamedChild(i), src); call != nil {
			return call
		}
	}
	return nil
}

func isSetupFunc(fn *sitter.Node, src []byte) bool {
	if fn == nil {
		return false
	}
	switch fn.Type() {
	case "identifier":
		return fn.Content(src) == "setup"
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		return attr != nil && attr.Content(src) == "setup"
	}
	return false
}

// setupKeywords reads install_requires and dependency_links out of the call arguments.
func setupKeywords(call *sitter.Node, src []byte) (SetupArgs, error) {
	args := SetupArgs{InstallRequires: []string{}, DependencyLinks: []string{}}
	list := call.ChildByFieldName("arguments")
	if list == nil || list.Type() != "argument_list" {
		return args, nil
	}

	for i := 0; i < int(list.NamedChildCount()); i++ {
		kw := list.NamedChild(i)
		if kw.Type() != "keyword_argument" {
			continue
		}
		name := kw.ChildByFieldName("name")
		if name == nil {
			continue
		}
		key := name.Content(src)
		if key != installRequires && key != dependencyLinks {
			continue
		}

		items, err := stringList(kw.ChildByFieldName("value"), src)
		if err != nil {
			return SetupArgs{}, fmt.Errorf("%s (line %d): %w", key, kw.StartPoint().Row+1, err)
		}
		if key == installRequires {
			args.InstallRequires = items
		} else {
			args.DependencyLinks = items
		}
	}
	return args, nil
}

// stringList reads a list (or tuple) literal of string constants.
func stringList(n *sitter.Node, src []byte) ([]string, error) {
	if n == nil {
		return nil, ErrNotAList
	}
	if n.Type() != "list" && n.Type() != "tuple" {
		return nil, fmt.Errorf("%w: got '%s'", ErrNotAList, n.Content(src))
	}

	items := []string{}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		el := n.NamedChild(i)
		if el.Type() == "comment" {
			continue
		}
		s, err := stringConstant(el, src)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, nil
}

// stringConstant decodes a string literal or an implicit concatenation of them.
func stringConstant(n *sitter.Node, src []byte) (string, error) {
	switch n.Type() {
	case "string":
		s, ok := decodeLiteral(n.Content(src))
		if !ok {
			break
		}
		return s, nil
	case "concatenated_string":
		var b strings.Builder
		for i := 0; i < int(n.NamedChildCount()); i++ {
			part := n.NamedChild(i)
			if part.Type() == "comment" {
				continue
			}
			s, err := stringConstant(part, src)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("%w: got '%s' (line %d)", ErrNotAString, n.Content(src), n.StartPoint().Row+1)
}

// decodeLiteral returns the value of a python string literal including its prefix and quotes.
// Bytes and f-strings are not constants and are rejected.
func decodeLiteral(lit string) (string, bool) {
	q := strings.IndexAny(lit, `"'`)
	if q == -1 {
		return "", false
	}
	prefix := strings.ToLower(lit[:q])
	if strings.ContainsAny(prefix, "bf") {
		return "", false
	}

	delim := lit[q : q+1]
	if strings.HasPrefix(lit[q:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	if len(lit) < q+2*len(delim) || !strings.HasSuffix(lit, delim) {
		return "", false
	}
	body := lit[q+len(delim) : len(lit)-len(delim)]
	if strings.Contains(prefix, "r") {
		return body, true
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' || i+1 >= len(body) {
			b.WriteByte(body[i])
			continue
		}
		i += writeEscape(&b, body[i+1:])
	}
	return b.String(), true
}

var simpleEscapes = map[byte]string{
	'\n': "", '\\': "\\", '\'': "'", '"': "\"",
	'a': "\a", 'b': "\b", 'f': "\f", 'n': "\n", 'r': "\r", 't': "\t", 'v': "\v",
}

// writeEscape decodes the escape sequence following a backslash and returns the number of bytes it spans.
// Unknown escapes are kept verbatim.
func writeEscape(b *strings.Builder, rest string) int {
	c := rest[0]
	if s, ok := simpleEscapes[c]; ok {
		b.WriteString(s)
		return 1
	}

	var digits, base int
	switch {
	case c == 'x':
		digits, base = 2, 16
	case c == 'u':
		digits, base = 4, 16
	case c == 'U':
		digits, base = 8, 16
	case c >= '0' && c <= '7':
		n := 1
		for n < 3 && n < len(rest) && rest[n] >= '0' && rest[n] <= '7' {
			n++
		}
		v, _ := strconv.ParseUint(rest[:n], 8, 32)
		b.WriteRune(rune(v))
		return n
	}
	if digits != 0 && len(rest) > digits {
		if v, err := strconv.ParseUint(rest[1:1+digits], base, 32); err == nil {
			b.WriteRune(rune(v))
			return 1 + digits
		}
	}

	b.WriteByte('\\')
	b.WriteByte(c)
	return 1
}
