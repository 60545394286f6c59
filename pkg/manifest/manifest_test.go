package manifest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/l1asis/pip-ext/pkg/integrations"
)

const setupCfg = `[metadata]
name = example

[options]
install_requires =
    requests>=2.0
    click
    requests>=2.0

[options.extras_require]
test =
    pytest
dev =
    black
`

const pyprojectToml = `[project]
name = "example"
dependencies = [
    "httpx>=0.24",
    "rich",
]

[project.optional-dependencies]
cli = ["typer"]
`

const setupPy = `from setuptools import setup

setup(
    name="example",
    install_requires=[
        "flask>=2.0",
        'gunicorn',
    ],
)
`

// manifestServer serves the given files under any revision prefix and 404s
// everything else.
func manifestServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for name, body := range files {
			if r.URL.Path == "/example/main/"+name {
				w.Write([]byte(body))
				return
			}
		}
		http.NotFound(w, r)
	}))
}

func fetchFrom(t *testing.T, server *httptest.Server) *Result {
	t.Helper()
	client := integrations.NewClient(nil, server.Client())
	res, err := Fetch(context.Background(), client, server.URL+"/example/main")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	return res
}

func TestFetch_SetupCfg(t *testing.T) {
	server := manifestServer(t, map[string]string{"setup.cfg": setupCfg})
	defer server.Close()

	res := fetchFrom(t, server)
	if res.Source != "setup.cfg" {
		t.Errorf("expected source setup.cfg, got %q", res.Source)
	}
	if want := []string{"requests>=2.0", "click"}; !reflect.DeepEqual(res.Requirements, want) {
		t.Errorf("requirements = %v, want %v", res.Requirements, want)
	}

	wantExtras := []Extra{
		{Name: "dev", Requirements: []string{"black"}},
		{Name: "test", Requirements: []string{"pytest"}},
	}
	if !reflect.DeepEqual(res.Extras, wantExtras) {
		t.Errorf("extras = %v, want %v", res.Extras, wantExtras)
	}
}

func TestFetch_SetupCfgWinsOverPyproject(t *testing.T) {
	server := manifestServer(t, map[string]string{
		"setup.cfg":      setupCfg,
		"pyproject.toml": pyprojectToml,
	})
	defer server.Close()

	res := fetchFrom(t, server)
	if res.Source != "setup.cfg" {
		t.Errorf("expected setup.cfg to win, got %q", res.Source)
	}
}

func TestFetch_Pyproject(t *testing.T) {
	server := manifestServer(t, map[string]string{"pyproject.toml": pyprojectToml})
	defer server.Close()

	res := fetchFrom(t, server)
	if res.Source != "pyproject.toml" {
		t.Errorf("expected source pyproject.toml, got %q", res.Source)
	}
	if want := []string{"httpx>=0.24", "rich"}; !reflect.DeepEqual(res.Requirements, want) {
		t.Errorf("requirements = %v, want %v", res.Requirements, want)
	}
	wantExtras := []Extra{{Name: "cli", Requirements: []string{"typer"}}}
	if !reflect.DeepEqual(res.Extras, wantExtras) {
		t.Errorf("extras = %v, want %v", res.Extras, wantExtras)
	}
}

func TestFetch_SetupPy(t *testing.T) {
	server := manifestServer(t, map[string]string{"setup.py": setupPy})
	defer server.Close()

	res := fetchFrom(t, server)
	if res.Source != "setup.py" {
		t.Errorf("expected source setup.py, got %q", res.Source)
	}
	if want := []string{"flask>=2.0", "gunicorn"}; !reflect.DeepEqual(res.Requirements, want) {
		t.Errorf("requirements = %v, want %v", res.Requirements, want)
	}
}

func TestFetch_EmptyManifestFallsThrough(t *testing.T) {
	// A setup.cfg without dependency sections declares nothing, so the probe
	// moves on to pyproject.toml.
	server := manifestServer(t, map[string]string{
		"setup.cfg":      "[metadata]\nname = example\n",
		"pyproject.toml": pyprojectToml,
	})
	defer server.Close()

	res := fetchFrom(t, server)
	if res.Source != "pyproject.toml" {
		t.Errorf("expected fallthrough to pyproject.toml, got %q", res.Source)
	}
}

func TestFetch_NothingDeclared(t *testing.T) {
	server := manifestServer(t, nil)
	defer server.Close()

	res := fetchFrom(t, server)
	if !res.Empty() {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestFetch_AbortsOnFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := integrations.NewClient(nil, server.Client())
	_, err := Fetch(context.Background(), client, server.URL+"/example/main")
	if !errors.Is(err, integrations.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestFetch_AbortsOnParseError(t *testing.T) {
	server := manifestServer(t, map[string]string{
		"pyproject.toml": "project = [broken",
	})
	defer server.Close()

	client := integrations.NewClient(nil, server.Client())
	_, err := Fetch(context.Background(), client, server.URL+"/example/main")
	if err == nil {
		t.Fatal("expected parse error to abort the probe")
	}
}

func TestExtractSetupCfg_RequiresDistPreferred(t *testing.T) {
	cfg := `[options]
requires-dist =
    modern-dep
install_requires =
    legacy-dep
`
	res, err := extractSetupCfg(cfg)
	if err != nil {
		t.Fatalf("extractSetupCfg failed: %v", err)
	}
	if want := []string{"modern-dep"}; !reflect.DeepEqual(res.Requirements, want) {
		t.Errorf("requirements = %v, want %v", res.Requirements, want)
	}
}

func TestExtractSetupPy_NoListLiteral(t *testing.T) {
	res, err := extractSetupPy(`setup(name="example")`)
	if err != nil {
		t.Fatalf("extractSetupPy failed: %v", err)
	}
	if !res.Empty() {
		t.Errorf("expected empty result, got %+v", res)
	}
}
