package cli

import (
	"reflect"
	"testing"

	"github.com/l1asis/pip-ext/pkg/integrations/pypi"
)

func TestPackageRows_SkipsAbsentFields(t *testing.T) {
	pkg := &pypi.Package{
		Name:    "requests",
		Version: "2.31.0",
		Release: "May 22, 2023",
		License: "Apache-2.0",
	}

	got := packageRows(pkg)
	want := [][2]string{
		{"Released", "May 22, 2023"},
		{"License", "Apache-2.0"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("packageRows = %v, want %v", got, want)
	}
}

func TestPackageRows_AllFieldsPresent(t *testing.T) {
	pkg := &pypi.Package{
		Release:     "Jan 1, 2024",
		License:     "MIT",
		Author:      "Jo Doe",
		AuthorEmail: "jo@example.com",
		Requires:    "Python >=3.8",
	}

	got := packageRows(pkg)
	keys := make([]string, len(got))
	for i, row := range got {
		keys[i] = row[0]
	}
	want := []string{"Released", "License", "Author", "Author email", "Requires"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("row keys = %v, want %v", keys, want)
	}
}
