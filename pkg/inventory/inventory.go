// Package inventory reports what is installed in a Python environment by
// running the package manager's own inspection command and decoding its
// JSON report.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/l1asis/pip-ext/pkg/freeze"
)

// DefaultPython is the interpreter used when none is configured.
const DefaultPython = "python3"

type inspectReport struct {
	Installed []struct {
		Metadata struct {
			Name          string   `json:"name"`
			Version       string   `json:"version"`
			RequiresDist  []string `json:"requires_dist"`
			ProvidesExtra []string `json:"provides_extra"`
		} `json:"metadata"`
	} `json:"installed"`
}

// Parse decodes a `pip inspect` report into distributions.
func Parse(r io.Reader) ([]freeze.Distribution, error) {
	var report inspectReport
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("decoding inspect report: %w", err)
	}

	dists := make([]freeze.Distribution, 0, len(report.Installed))
	for _, in := range report.Installed {
		m := in.Metadata
		if m.Name == "" {
			continue
		}
		dists = append(dists, freeze.Distribution{
			Name:     m.Name,
			Version:  m.Version,
			Requires: m.RequiresDist,
			Extras:   m.ProvidesExtra,
		})
	}
	return dists, nil
}

// Installed runs `<python> -m pip inspect` and parses its output. The python
// argument names the interpreter whose environment is inspected; empty means
// [DefaultPython].
func Installed(ctx context.Context, python string) ([]freeze.Distribution, error) {
	if python == "" {
		python = DefaultPython
	}

	cmd := exec.CommandContext(ctx, python, "-m", "pip", "inspect")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("pip inspect: %v: %s", err, msg)
		}
		return nil, fmt.Errorf("pip inspect: %w", err)
	}
	return Parse(&stdout)
}
