package cli

import (
	"testing"

	"github.com/l1asis/pip-ext/pkg/pep508"
)

func TestMarkerEnv_OverridesBothVersionVariables(t *testing.T) {
	env := markerEnv("3.10")

	if got := env.Vars["python_version"]; got != "3.10" {
		t.Errorf("python_version = %q, want %q", got, "3.10")
	}
	if got := env.Vars["python_full_version"]; got != "3.10.0" {
		t.Errorf("python_full_version = %q, want %q", got, "3.10.0")
	}
}

func TestMarkerEnv_FullVersionMarkersTrackConfig(t *testing.T) {
	// A marker written against python_full_version must be judged for the
	// configured interpreter, not the compiled-in default.
	ok, err := pep508.Evaluate(`python_full_version < "3.11.0"`, markerEnv("3.10"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !ok {
		t.Error("expected marker to hold for interpreter 3.10")
	}
}
