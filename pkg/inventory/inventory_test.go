package inventory

import (
	"strings"
	"testing"
)

const inspectReportJSON = `{
  "version": "1",
  "installed": [
    {
      "metadata": {
        "name": "requests",
        "version": "2.31.0",
        "requires_dist": [
          "charset-normalizer<4,>=2",
          "idna<4,>=2.5",
          "PySocks!=1.5.7,>=1.5.6; extra == \"socks\""
        ],
        "provides_extra": ["security", "socks"]
      }
    },
    {
      "metadata": {
        "name": "idna",
        "version": "3.6"
      }
    },
    {
      "metadata": {}
    }
  ]
}`

func TestParse(t *testing.T) {
	dists, err := Parse(strings.NewReader(inspectReportJSON))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// The nameless record is dropped.
	if len(dists) != 2 {
		t.Fatalf("expected 2 distributions, got %d", len(dists))
	}

	req := dists[0]
	if req.Name != "requests" || req.Version != "2.31.0" {
		t.Errorf("unexpected distribution %+v", req)
	}
	if len(req.Requires) != 3 {
		t.Errorf("expected 3 requirements, got %v", req.Requires)
	}
	if len(req.Extras) != 2 || req.Extras[0] != "security" {
		t.Errorf("unexpected extras %v", req.Extras)
	}

	if dists[1].Name != "idna" || len(dists[1].Requires) != 0 {
		t.Errorf("unexpected distribution %+v", dists[1])
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse(strings.NewReader("not json")); err == nil {
		t.Error("expected error for malformed report")
	}
}

func TestParse_EmptyReport(t *testing.T) {
	dists, err := Parse(strings.NewReader(`{"installed": []}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(dists) != 0 {
		t.Errorf("expected no distributions, got %v", dists)
	}
}
