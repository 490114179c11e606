package pipcheck

import (
	"fmt"

	"github.com/dephub/pipcheck/providers/manifest"
)

// ClassificationMismatchError is returned when both manifests name a package but
// disagree on its kind (e.g. setup.py pins a version of a vcs package).
type ClassificationMismatchError struct {
	Package  string
	Expected manifest.Kind
	Actual   manifest.Kind
}

func (e *ClassificationMismatchError) Error() string {
	return fmt.Sprintf("package %s is a %s package in setup.py but a %s package in pipfile",
		e.Package, e.Expected, e.Actual)
}
