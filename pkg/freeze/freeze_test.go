package freeze

import (
	"reflect"
	"strings"
	"testing"

	"github.com/l1asis/pip-ext/pkg/pep508"
)

func linuxEnv() pep508.Environment {
	return pep508.Environment{
		Vars: map[string]string{
			"sys_platform":   "linux",
			"os_name":        "posix",
			"python_version": "3.12",
		},
	}
}

func TestReduce_DependencyChain(t *testing.T) {
	dists := []Distribution{
		{Name: "app", Version: "1.0", Requires: []string{"lib>=2.0"}},
		{Name: "lib", Version: "2.3", Requires: []string{"base"}},
		{Name: "base", Version: "0.9"},
	}

	got := Reduce(dists, Options{Env: linuxEnv()})
	if want := []string{"app"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reduce = %v, want %v", got, want)
	}
}

func TestReduce_WithVersion(t *testing.T) {
	dists := []Distribution{
		{Name: "app", Version: "1.0", Requires: []string{"lib"}},
		{Name: "lib", Version: "2.3"},
	}

	got := Reduce(dists, Options{WithVersion: true, Env: linuxEnv()})
	if want := []string{"app==1.0"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reduce = %v, want %v", got, want)
	}
}

func TestReduce_NormalizedNameMatching(t *testing.T) {
	// Requirement names and distribution names may differ in casing and
	// separators; they still name the same project.
	dists := []Distribution{
		{Name: "app", Version: "1.0", Requires: []string{"Typing_Extensions>=4.0"}},
		{Name: "typing-extensions", Version: "4.9.0"},
	}

	got := Reduce(dists, Options{Env: linuxEnv()})
	if want := []string{"app"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reduce = %v, want %v", got, want)
	}
}

func TestReduce_FalseMarkerKeepsTarget(t *testing.T) {
	dists := []Distribution{
		{Name: "app", Version: "1.0", Requires: []string{`colorama ; sys_platform == "win32"`}},
		{Name: "colorama", Version: "0.4.6"},
	}

	got := Reduce(dists, Options{Env: linuxEnv()})
	if want := []string{"app", "colorama"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reduce = %v, want %v", got, want)
	}
}

func TestReduce_ExtraDecoration(t *testing.T) {
	// app was installed with its "socks" extra, so the extra-gated
	// requirement holds: the target leaves the roots and the dependent is
	// decorated with the extra that pulled it in.
	dists := []Distribution{
		{
			Name:     "app",
			Version:  "1.0",
			Requires: []string{`pysocks ; extra == "socks"`},
			Extras:   []string{"socks"},
		},
		{Name: "pysocks", Version: "1.7.1"},
	}

	got := Reduce(dists, Options{Env: linuxEnv()})
	if want := []string{"app[socks]"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reduce = %v, want %v", got, want)
	}
}

func TestReduce_InactiveExtraNotDecorated(t *testing.T) {
	dists := []Distribution{
		{
			Name:     "app",
			Version:  "1.0",
			Requires: []string{`pysocks ; extra == "socks"`},
		},
		{Name: "pysocks", Version: "1.7.1"},
	}

	got := Reduce(dists, Options{Env: linuxEnv()})
	if want := []string{"app", "pysocks"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reduce = %v, want %v", got, want)
	}
}

func TestReduce_MultipleExtrasKeepFirstSeenOrder(t *testing.T) {
	dists := []Distribution{
		{
			Name:    "app",
			Version: "1.0",
			Requires: []string{
				`pysocks ; extra == "socks"`,
				`cryptography ; extra == "security"`,
				`idna ; extra == "security"`,
			},
			Extras: []string{"socks", "security"},
		},
		{Name: "pysocks", Version: "1.7.1"},
		{Name: "cryptography", Version: "42.0.0"},
		{Name: "idna", Version: "3.6"},
	}

	got := Reduce(dists, Options{Env: linuxEnv()})
	if want := []string{"app[socks,security]"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reduce = %v, want %v", got, want)
	}
}

func TestReduce_UninstalledTargetIgnored(t *testing.T) {
	dists := []Distribution{
		{Name: "app", Version: "1.0", Requires: []string{"not-installed"}},
	}

	got := Reduce(dists, Options{Env: linuxEnv()})
	if want := []string{"app"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reduce = %v, want %v", got, want)
	}
}

func TestReduce_BadRequirementSkipped(t *testing.T) {
	var logged int
	dists := []Distribution{
		{Name: "app", Version: "1.0", Requires: []string{"[broken", "lib"}},
		{Name: "lib", Version: "2.0"},
	}

	got := Reduce(dists, Options{
		Env:  linuxEnv(),
		Logf: func(string, ...any) { logged++ },
	})
	if want := []string{"app"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reduce = %v, want %v", got, want)
	}
	if logged == 0 {
		t.Error("expected a diagnostic for the broken requirement")
	}
}

func TestReduce_SortsCaseInsensitively(t *testing.T) {
	dists := []Distribution{
		{Name: "zebra", Version: "1.0"},
		{Name: "Apple", Version: "1.0"},
		{Name: "mango", Version: "1.0"},
	}

	got := Reduce(dists, Options{Env: linuxEnv()})
	if want := []string{"Apple", "mango", "zebra"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reduce = %v, want %v", got, want)
	}
}

func TestReduce_ExtraGatedAndUnconditionalReferences(t *testing.T) {
	// "shared" is consumed twice: once through app's active extra-gated
	// requirement and once unconditionally through other. It must leave the
	// roots, and only app picks up the extra decoration.
	dists := []Distribution{
		{
			Name:     "app",
			Version:  "1.0",
			Requires: []string{`shared ; extra == "x"`},
			Extras:   []string{"x"},
		},
		{Name: "other", Version: "2.0", Requires: []string{"shared"}},
		{Name: "shared", Version: "0.5"},
	}

	got := Reduce(dists, Options{Env: linuxEnv()})
	if want := []string{"app[x]", "other"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Reduce = %v, want %v", got, want)
	}
}

func TestReduce_Idempotent(t *testing.T) {
	// Reducing a set that is already minimal changes nothing.
	dists := []Distribution{
		{Name: "app", Version: "1.0", Requires: []string{"not-installed"}},
		{Name: "other", Version: "2.0"},
	}

	first := Reduce(dists, Options{Env: linuxEnv()})
	second := Reduce(dists, Options{Env: linuxEnv()})
	if !reflect.DeepEqual(first, second) {
		t.Errorf("reduction not stable: %v then %v", first, second)
	}
}

func TestReduce_FixedPointOnOwnOutput(t *testing.T) {
	// Uninstalling everything the reduction dropped and reducing the
	// survivors must reproduce the same root set, decorations included.
	dists := []Distribution{
		{
			Name:     "app",
			Version:  "1.0",
			Requires: []string{`pysocks ; extra == "socks"`, "lib"},
			Extras:   []string{"socks"},
		},
		{Name: "lib", Version: "2.3", Requires: []string{"base"}},
		{Name: "base", Version: "0.9"},
		{Name: "pysocks", Version: "1.7.1"},
		{Name: "other", Version: "2.0"},
	}

	first := Reduce(dists, Options{Env: linuxEnv()})
	if want := []string{"app[socks]", "other"}; !reflect.DeepEqual(first, want) {
		t.Fatalf("Reduce = %v, want %v", first, want)
	}

	kept := make(map[string]bool, len(first))
	for _, line := range first {
		name := line
		if i := strings.IndexAny(name, "[="); i >= 0 {
			name = name[:i]
		}
		kept[pep508.Normalize(name)] = true
	}
	var survivors []Distribution
	for _, d := range dists {
		if kept[pep508.Normalize(d.Name)] {
			survivors = append(survivors, d)
		}
	}

	second := Reduce(survivors, Options{Env: linuxEnv()})
	if !reflect.DeepEqual(first, second) {
		t.Errorf("reduction not a fixed point: %v then %v", first, second)
	}
}
