// Package pep508 parses Python dependency requirement strings and evaluates
// their environment markers.
//
// A requirement string names a package plus an optional extras list, an
// opaque version constraint and an optional environment marker, e.g.
//
//	requests[security] >=2.8.1, ==2.8.* ; python_version < "2.7"
//
// The package extracts the structured parts without validating version
// syntax; constraints stay opaque strings. Marker expressions are evaluated
// against an [Environment] describing the ambient platform and the set of
// active extras.
package pep508

import (
	"fmt"
	"regexp"
	"strings"
)

var nameRE = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*`)

// Requirement is one parsed dependency declaration.
type Requirement struct {
	Name       string   // declared name, original casing
	Extras     []string // requested extras, e.g. ["security"]
	Constraint string   // raw version constraint, may be empty
	Marker     string   // raw marker expression after ";", may be empty
}

// Parse extracts the structured parts of a requirement string.
// It fails only when no package name can be found; everything after the
// name is carried through without validation.
func Parse(s string) (*Requirement, error) {
	spec := s
	marker := ""
	if i := strings.IndexByte(s, ';'); i >= 0 {
		spec, marker = s[:i], strings.TrimSpace(s[i+1:])
	}

	spec = strings.TrimSpace(spec)
	name := nameRE.FindString(spec)
	if name == "" {
		return nil, fmt.Errorf("invalid requirement %q: no package name", s)
	}
	rest := strings.TrimSpace(spec[len(name):])

	var extras []string
	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("invalid requirement %q: unterminated extras", s)
		}
		for _, e := range strings.Split(rest[1:end], ",") {
			if e = strings.TrimSpace(e); e != "" {
				extras = append(extras, e)
			}
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	return &Requirement{
		Name:       name,
		Extras:     extras,
		Constraint: strings.Trim(rest, "()"),
		Marker:     marker,
	}, nil
}

// Normalize converts a package name to its canonical form following PEP 503:
// lowercase, with runs of "-", "_" and "." collapsed to a single hyphen.
// Two names naming the same project always normalize identically.
func Normalize(name string) string {
	return normRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

var normRE = regexp.MustCompile(`[-_.]+`)

var extraRefRE = regexp.MustCompile(`extra\s*==\s*['"]([^'"]+)['"]`)

// ExtraRefs returns the extra names a marker expression gates on, in source
// order. Markers without extra comparisons yield nil.
func ExtraRefs(marker string) []string {
	var refs []string
	for _, m := range extraRefRE.FindAllStringSubmatch(marker, -1) {
		refs = append(refs, m[1])
	}
	return refs
}
