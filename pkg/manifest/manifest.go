// Package manifest extracts a project's declared dependencies from its
// repository manifests.
//
// Python projects declare dependencies in one of three places, and the
// reliable order to probe them is setup.cfg, then pyproject.toml, then
// setup.py: the first two are structured and honest, setup.py is a program
// and only yields to a best-effort literal scan. The first manifest that
// declares anything wins; a missing file moves the probe along, any other
// failure aborts the whole fetch.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"

	"github.com/l1asis/pip-ext/pkg/integrations"
)

var (
	setupDepsRE   = regexp.MustCompile(`(?s)(?:install_requires|requires)\s*=\s*\[(.*?)\]`)
	setupStringRE = regexp.MustCompile(`["'](.*?)["']`)
)

// Extra is one named optional-dependency group.
type Extra struct {
	Name         string
	Requirements []string
}

// Result holds the declared dependencies of one project revision.
type Result struct {
	// Source is the manifest file the result came from.
	Source string
	// Requirements are the unconditional dependency strings, page order,
	// de-duplicated.
	Requirements []string
	// Extras are the optional groups, sorted by name.
	Extras []Extra
}

// Empty reports whether the result declares nothing at all.
func (r *Result) Empty() bool {
	return len(r.Requirements) == 0 && len(r.Extras) == 0
}

type probe struct {
	file    string
	extract func(body string) (*Result, error)
}

var probes = []probe{
	{"setup.cfg", extractSetupCfg},
	{"pyproject.toml", extractPyproject},
	{"setup.py", extractSetupPy},
}

// Fetch probes the manifests under rawBase (a raw-content URL prefix for one
// repository revision) and returns the first non-empty dependency
// declaration.
//
// A manifest the host doesn't have is skipped; any other fetch or parse
// error aborts, since a partial answer from a later, less reliable manifest
// would silently misreport the project. When no manifest declares anything
// the result is empty, not an error.
func Fetch(ctx context.Context, client *integrations.Client, rawBase string) (*Result, error) {
	for _, p := range probes {
		body, err := client.Page(ctx, rawBase+"/"+p.file, nil)
		if err != nil {
			if errors.Is(err, integrations.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("fetching %s: %w", p.file, err)
		}

		res, err := p.extract(body)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p.file, err)
		}
		if !res.Empty() {
			res.Source = p.file
			return res, nil
		}
	}
	return &Result{}, nil
}

// extractSetupCfg scans every section for a "requires-dist" (preferred) or
// "install_requires" key, plus the [options.extras_require] section for
// optional groups. Dependency lists in setup.cfg are newline-separated
// option values; the parser must accept Python-style multiline values or
// every list collapses to its first line.
func extractSetupCfg(body string) (*Result, error) {
	f, err := ini.LoadSources(ini.LoadOptions{AllowPythonMultilineValues: true}, []byte(body))
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, section := range f.Sections() {
		if section.Name() == "options.extras_require" {
			continue
		}
		if key, err := section.GetKey("requires-dist"); err == nil {
			res.Requirements = append(res.Requirements, splitList(key.Value())...)
		} else if key, err := section.GetKey("install_requires"); err == nil {
			res.Requirements = append(res.Requirements, splitList(key.Value())...)
		}
	}
	res.Requirements = dedupe(res.Requirements)

	if extras, err := f.GetSection("options.extras_require"); err == nil {
		for _, key := range extras.Keys() {
			reqs := splitList(key.Value())
			if len(reqs) > 0 {
				res.Extras = append(res.Extras, Extra{Name: key.Name(), Requirements: reqs})
			}
		}
		sortExtras(res.Extras)
	}
	return res, nil
}

// extractPyproject reads the standard [project] table.
func extractPyproject(body string) (*Result, error) {
	var doc struct {
		Project struct {
			Dependencies         []string            `toml:"dependencies"`
			OptionalDependencies map[string][]string `toml:"optional-dependencies"`
		} `toml:"project"`
	}
	if err := toml.Unmarshal([]byte(body), &doc); err != nil {
		return nil, err
	}

	res := &Result{Requirements: dedupe(doc.Project.Dependencies)}
	for name, reqs := range doc.Project.OptionalDependencies {
		if len(reqs) > 0 {
			res.Extras = append(res.Extras, Extra{Name: name, Requirements: dedupe(reqs)})
		}
	}
	sortExtras(res.Extras)
	return res, nil
}

// extractSetupPy scans for an install_requires (or bare requires) list
// literal and pulls the quoted strings out of it. setup.py is arbitrary
// code, so anything built dynamically is invisible here; the structured
// manifests are probed first for exactly that reason.
func extractSetupPy(body string) (*Result, error) {
	m := setupDepsRE.FindStringSubmatch(body)
	if m == nil {
		return &Result{}, nil
	}
	var reqs []string
	for _, s := range setupStringRE.FindAllStringSubmatch(m[1], -1) {
		reqs = append(reqs, s[1])
	}
	return &Result{Requirements: dedupe(reqs)}, nil
}

// splitList splits a whitespace-separated manifest value into de-duplicated
// entries.
func splitList(value string) []string {
	return dedupe(strings.Fields(value))
}

// dedupe drops repeated entries, keeping first occurrence order.
func dedupe(in []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func sortExtras(extras []Extra) {
	sort.Slice(extras, func(i, j int) bool { return extras[i].Name < extras[j].Name })
}
