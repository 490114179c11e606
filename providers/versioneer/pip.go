package versioneer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

/*
Pip versions semantic parsing and ordering implementation.
*/

// ErrEmptyVersion is returned when a version literal is empty.
var ErrEmptyVersion = errors.New("empty version")

// pipConfig is used to store pip parser configuration.
type pipConfig struct {
	versionRgx         string         // PEP 440 version regexp (e.g. 1!2.0.1rc2.post1.dev3+ubuntu.1)
	versionRgxCompiled *regexp.Regexp // Compiled version regexp
	preReleases        map[string]int // Pre-release spellings mapped to their phase order (a < b < rc)
}

// pipCfg is a global pip parser configuration.
var pipCfg pipConfig

// pip parser config initialization and expressions compiling.
func init() {
	pipCfg.versionRgx = `v?(?:([0-9]+)!)?` + // epoch
		`([0-9]+(?:\.[0-9]+)*)` + // release
		`(?:[-_\.]?(alpha|beta|preview|pre|rc|a|b|c)[-_\.]?([0-9]+)?)?` + // pre-release
		`(?:-([0-9]+)|[-_\.]?(post|rev|r)[-_\.]?([0-9]+)?)?` + // post-release
		`(?:[-_\.]?(dev)[-_\.]?([0-9]+)?)?` + // development release
		`(?:\+([a-z0-9]+(?:[-_\.][a-z0-9]+)*))?` // local version label
	pipCfg.versionRgxCompiled = regexp.MustCompile("^" + pipCfg.versionRgx + "$")
	pipCfg.preReleases = map[string]int{
		"a":       0,
		"alpha":   0,
		"b":       1,
		"beta":    1,
		"c":       2,
		"rc":      2,
		"pre":     2,
		"preview": 2,
	}
}

// Version represents a pip package version.
//
// Values following PEP 440 are ordered by its rules. Anything else is kept as a legacy
// version: legacy versions sort before every PEP 440 version, between themselves they are
// ordered as semantic versions when possible and lexically otherwise.
type Version struct {
	value  string
	pep    *pep440Version
	legacy *semver.Version
}

// NewPipVersion constructs ready-to-use pip Version instance.
func NewPipVersion(value string) (Version, error) {
	nval := strings.ToLower(strings.TrimSpace(value))
	if nval == "" {
		return Version{}, ErrEmptyVersion
	}
	if strings.ContainsAny(nval, "*, \t") {
		return Version{}, fmt.Errorf("version '%s' is not supported", value)
	}

	v := Version{value: value}
	if pv, ok := parsePEP440(nval); ok {
		v.pep = pv
		return v, nil
	}
	if sv, err := semver.NewVersion(nval); err == nil {
		v.legacy = sv
	}
	return v, nil
}

// MustPipVersion is like NewPipVersion but panics on error.
func MustPipVersion(value string) Version {
	v, err := NewPipVersion(value)
	if err != nil {
		panic(err)
	}
	return v
}

// Value method returns original unmodified raw value of the version.
func (v Version) Value() string {
	return v.value
}

func (v Version) String() string {
	return v.value
}

// Legacy reports whether the version does not follow PEP 440.
func (v Version) Legacy() bool {
	return v.pep == nil
}

// Equal reports whether both versions denote the same release (e.g. '2' and '2.0').
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// Compare returns -1, 0 or 1 when v is lower, equal or greater than o.
func (v Version) Compare(o Version) int {
	if lr, rr := v.legacyRank(), o.legacyRank(); lr != rr {
		return compareInt(lr, rr)
	}
	switch {
	case v.pep != nil:
		return v.pep.compare(o.pep)
	case v.legacy != nil:
		return v.legacy.Compare(o.legacy)
	}
	return strings.Compare(strings.ToLower(v.value), strings.ToLower(o.value))
}

// legacyRank orders the three version families: plain legacy < semver legacy < PEP 440.
func (v Version) legacyRank() int {
	switch {
	case v.pep != nil:
		return 2
	case v.legacy != nil:
		return 1
	}
	return 0
}

// Phase markers used by the PEP 440 ordering key where a segment is absent.
const (
	phaseNegInf = -1
	phaseValue  = 0
	phasePosInf = 1
)

// keyPart is a single comparable part of the PEP 440 ordering key.
type keyPart struct {
	phase int
	order int
	num   int
}

func (k keyPart) compare(o keyPart) int {
	if k.phase != o.phase {
		return compareInt(k.phase, o.phase)
	}
	if k.order != o.order {
		return compareInt(k.order, o.order)
	}
	return compareInt(k.num, o.num)
}

// pep440Version is a parsed PEP 440 version.
type pep440Version struct {
	epoch   int
	release []int
	pre     keyPart
	post    keyPart
	dev     keyPart
	local   []string
}

func parsePEP440(value string) (*pep440Version, bool) {
	matches := pipCfg.versionRgxCompiled.FindStringSubmatch(value)
	if matches == nil {
		return nil, false
	}

	var (
		pv  = &pep440Version{}
		err error
	)
	if matches[1] != "" {
		if pv.epoch, err = strconv.Atoi(matches[1]); err != nil {
			return nil, false
		}
	}
	for _, seg := range strings.Split(matches[2], ".") {
		n, err := strconv.Atoi(seg)
		if err != nil {
			return nil, false
		}
		pv.release = append(pv.release, n)
	}

	hasPre, hasPost, hasDev := matches[3] != "", matches[5] != "" || matches[6] != "", matches[8] != ""
	preNum, ok := optionalNumber(matches[4])
	if !ok {
		return nil, false
	}
	postNum, ok := optionalNumber(matches[5] + matches[7])
	if !ok {
		return nil, false
	}
	devNum, ok := optionalNumber(matches[9])
	if !ok {
		return nil, false
	}

	// A bare development release sorts before its pre-releases: 1.0.dev0 < 1.0a0.
	switch {
	case !hasPre && !hasPost && hasDev:
		pv.pre = keyPart{phase: phaseNegInf}
	case !hasPre:
		pv.pre = keyPart{phase: phasePosInf}
	default:
		pv.pre = keyPart{phase: phaseValue, order: pipCfg.preReleases[matches[3]], num: preNum}
	}
	if hasPost {
		pv.post = keyPart{phase: phaseValue, num: postNum}
	} else {
		pv.post = keyPart{phase: phaseNegInf}
	}
	if hasDev {
		pv.dev = keyPart{phase: phaseValue, num: devNum}
	} else {
		pv.dev = keyPart{phase: phasePosInf}
	}
	if matches[10] != "" {
		pv.local = strings.FieldsFunc(matches[10], func(r rune) bool { return r == '-' || r == '_' || r == '.' })
	}

	return pv, true
}

// compare implements the PEP 440 ordering. Trailing zeros of the release segment are
// insignificant, so '1.2' equals '1.2.0'.
func (pv *pep440Version) compare(o *pep440Version) int {
	if pv.epoch != o.epoch {
		return compareInt(pv.epoch, o.epoch)
	}
	for i := 0; i < len(pv.release) || i < len(o.release); i++ {
		if c := compareInt(segmentAt(pv.release, i), segmentAt(o.release, i)); c != 0 {
			return c
		}
	}
	if c := pv.pre.compare(o.pre); c != 0 {
		return c
	}
	if c := pv.post.compare(o.post); c != 0 {
		return c
	}
	if c := pv.dev.compare(o.dev); c != 0 {
		return c
	}
	return compareLocal(pv.local, o.local)
}

// compareLocal orders local labels: no label sorts first, numeric parts sort after alphanumeric ones.
func compareLocal(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return compareInt(len(a), len(b))
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		an, aerr := strconv.Atoi(a[i])
		bn, berr := strconv.Atoi(b[i])
		switch {
		case aerr == nil && berr == nil:
			if an != bn {
				return compareInt(an, bn)
			}
		case aerr == nil:
			return 1
		case berr == nil:
			return -1
		default:
			if c := strings.Compare(a[i], b[i]); c != 0 {
				return c
			}
		}
	}
	return compareInt(len(a), len(b))
}

func optionalNumber(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func segmentAt(segments []int, i int) int {
	if i < len(segments) {
		return segments[i]
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
