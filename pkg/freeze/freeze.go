// Package freeze reduces an installed-distribution inventory to its roots:
// the distributions nothing else currently installed depends on.
//
// The reducer never talks to the package manager itself; it consumes an
// already-parsed inventory (see pkg/inventory for the pip-backed provider)
// and works purely on requirement strings and environment markers.
package freeze

import (
	"sort"
	"strings"

	"github.com/l1asis/pip-ext/pkg/pep508"
)

// Distribution is one installed package as reported by the package manager.
// The reducer treats it as read-only; "removing" a distribution only takes
// it out of the working root set.
type Distribution struct {
	Name     string   // distribution name, original casing
	Version  string   // installed version
	Requires []string // declared requirement strings, raw
	Extras   []string // extras declared by the distribution
}

// Options configure one reduction.
type Options struct {
	// WithVersion suffixes each output entry with "==<version>".
	WithVersion bool

	// Env is the marker environment. The zero value falls back to
	// [pep508.Default]; each distribution's declared extras are layered on
	// top while its own requirements are evaluated.
	Env pep508.Environment

	// Logf receives diagnostics about requirement strings or markers that
	// could not be evaluated (such requirements are skipped). May be nil.
	Logf func(format string, args ...any)
}

type rootEntry struct {
	dist   Distribution
	extras []string
}

// Reduce computes the minimal root set of the inventory.
//
// Every distribution starts as a root. For each distribution D, each of its
// requirements whose marker holds (absent marker counts as true) consumes
// its target: if the named package is installed, the target leaves the root
// set, regardless of whether the requirement was extra-gated. When any of
// D's true-evaluating requirements were gated on extras, D's own entry is
// decorated as "D[extra1,extra2]" in the order the extras were first seen.
//
// The result is sorted case-insensitively by name.
func Reduce(dists []Distribution, opts Options) []string {
	if opts.Env.Vars == nil {
		opts.Env = pep508.Default()
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	installed := make(map[string]bool, len(dists))
	roots := make(map[string]*rootEntry, len(dists))
	for _, d := range dists {
		key := pep508.Normalize(d.Name)
		installed[key] = true
		roots[key] = &rootEntry{dist: d}
	}

	for _, d := range dists {
		env := opts.Env.WithExtras(d.Extras)
		var triggered []string
		seen := make(map[string]bool)

		for _, raw := range d.Requires {
			req, err := pep508.Parse(raw)
			if err != nil {
				logf("skipping requirement of %s: %v", d.Name, err)
				continue
			}
			ok := true
			if req.Marker != "" {
				if ok, err = pep508.Evaluate(req.Marker, env); err != nil {
					logf("skipping marker of %s: %v", d.Name, err)
					continue
				}
			}
			if !ok {
				continue
			}
			for _, extra := range pep508.ExtraRefs(req.Marker) {
				if !seen[extra] {
					seen[extra] = true
					triggered = append(triggered, extra)
				}
			}
			if target := pep508.Normalize(req.Name); installed[target] {
				delete(roots, target)
			}
		}

		if len(triggered) > 0 {
			if entry, ok := roots[pep508.Normalize(d.Name)]; ok {
				entry.extras = triggered
			}
		}
	}

	entries := make([]*rootEntry, 0, len(roots))
	for _, e := range roots {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].dist.Name) < strings.ToLower(entries[j].dist.Name)
	})

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		line := e.dist.Name
		if len(e.extras) > 0 {
			line += "[" + strings.Join(e.extras, ",") + "]"
		}
		if opts.WithVersion && e.dist.Version != "" {
			line += "==" + e.dist.Version
		}
		out = append(out, line)
	}
	return out
}
