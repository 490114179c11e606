package versioneer

import (
	"fmt"
	"sort"
)

// Verdict is the set relationship between a declared and an authoritative version range.
type Verdict int

const (
	// Identical ranges accept exactly the same versions.
	Identical Verdict = iota
	// Compatible means the declared range is a strict subset of the authoritative one (==1.1 vs ~=1.0).
	Compatible
	// Potential means the ranges overlap but neither contains the other (>=2.0 vs >=3.0).
	Potential
	// Disjoint ranges share no version (<=2.0 vs >=3.0).
	Disjoint
)

func (v Verdict) String() string {
	switch v {
	case Identical:
		return "IDENTICAL"
	case Compatible:
		return "COMPATIBLE"
	case Potential:
		return "POTENTIAL"
	case Disjoint:
		return "DISJOINT"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// metricFilters maps every operator to the predicate a candidate metric x must satisfy
// against the metric m of the constraint version.
var metricFilters = map[Operator]func(x, m int) bool{
	OpEqual:        func(x, m int) bool { return m == x },
	OpNotEqual:     func(x, m int) bool { return m != x },
	OpGreaterEqual: func(x, m int) bool { return m <= x },
	OpGreater:      func(x, m int) bool { return m < x },
	OpLessEqual:    func(x, m int) bool { return m >= x },
	OpLess:         func(x, m int) bool { return m > x },
}

// Analyze classifies how the declared range relates to the authoritative one.
//
// Every distinct version mentioned by either set gets an odd metric (rank i maps to 2i-1),
// the even metrics in between stand for the open gaps between versions. Both sets are
// evaluated over the integer space 0..2N and the resulting integer sets are compared.
//
// A wildcard declared set is Compatible with any authoritative set that does not cover the
// whole space, and Identical with one that does.
//
// Analyze panics if a constraint carries an operator ParseConstraints would reject.
func Analyze(declared, authoritative ConstraintSet) Verdict {
	line := newVersionLine(declared, authoritative)
	d := line.satisfying(declared)
	a := line.satisfying(authoritative)

	switch {
	case declared.Any() && a.full():
		return Identical
	case declared.Any():
		return Compatible
	case d.equal(a):
		return Identical
	case d.subsetOf(a):
		return Compatible
	case !d.intersects(a):
		return Disjoint
	}
	return Potential
}

// versionLine holds the sorted distinct versions mentioned by the analyzed sets.
type versionLine []Version

func newVersionLine(sets ...ConstraintSet) versionLine {
	var all []Version
	for _, cs := range sets {
		for _, c := range cs {
			all = append(all, c.Version)
			if c.Prefix() {
				all = append(all, c.Upper)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Compare(all[j]) < 0
	})

	line := versionLine{}
	for _, v := range all {
		if len(line) > 0 && line[len(line)-1].Equal(v) {
			continue
		}
		line = append(line, v)
	}
	return line
}

// metric returns 2i-1 for the version ranked i (1-based) on the line.
func (l versionLine) metric(v Version) int {
	i := sort.Search(len(l), func(i int) bool {
		return l[i].Compare(v) >= 0
	})
	return 2*(i+1) - 1
}

func (l versionLine) satisfying(cs ConstraintSet) metricSet {
	space := make(metricSet, 2*len(l)+1)
	for x := range space {
		space[x] = true
	}
	for _, c := range cs {
		keep, ok := metricFilters[c.Op]
		if !ok {
			panic(fmt.Sprintf("versioneer: not recognizable version string operator %q", c.Op))
		}
		m := l.metric(c.Version)
		if c.Prefix() {
			// versions from the prefix up to its bumped successor are excluded
			upper := l.metric(c.Upper)
			keep = func(x, m int) bool { return x < m || x >= upper }
		}
		for x := range space {
			if space[x] && !keep(x, m) {
				space[x] = false
			}
		}
	}
	return space
}

// metricSet marks the satisfying metrics of a constraint set.
type metricSet []bool

func (s metricSet) equal(o metricSet) bool {
	for x := range s {
		if s[x] != o[x] {
			return false
		}
	}
	return true
}

func (s metricSet) full() bool {
	for _, ok := range s {
		if !ok {
			return false
		}
	}
	return true
}

func (s metricSet) subsetOf(o metricSet) bool {
	for x := range s {
		if s[x] && !o[x] {
			return false
		}
	}
	return true
}

func (s metricSet) intersects(o metricSet) bool {
	for x := range s {
		if s[x] && o[x] {
			return true
		}
	}
	return false
}
