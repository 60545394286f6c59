package pep508

import "runtime"

// Environment supplies the values marker expressions compare against:
// platform variables (sys_platform, os_name, ...) and the set of extras
// active for the requirement being evaluated.
type Environment struct {
	Vars   map[string]string
	Extras map[string]bool
}

// Default builds an environment from the ambient runtime. Python version
// variables default to a current interpreter line and can be overridden via
// [Environment.With] when configuration supplies the real value.
func Default() Environment {
	vars := map[string]string{
		"sys_platform":                   sysPlatform(),
		"platform_system":                platformSystem(),
		"os_name":                        osName(),
		"platform_machine":               platformMachine(),
		"implementation_name":            "cpython",
		"platform_python_implementation": "CPython",
		"python_version":                 "3.12",
		"python_full_version":            "3.12.0",
	}
	return Environment{Vars: vars, Extras: map[string]bool{}}
}

// With returns a copy of the environment with one variable overridden.
func (e Environment) With(key, value string) Environment {
	vars := make(map[string]string, len(e.Vars)+1)
	for k, v := range e.Vars {
		vars[k] = v
	}
	vars[key] = value
	return Environment{Vars: vars, Extras: e.Extras}
}

// WithExtras returns a copy of the environment in which exactly the given
// extras are active.
func (e Environment) WithExtras(names []string) Environment {
	extras := make(map[string]bool, len(names))
	for _, n := range names {
		extras[n] = true
	}
	return Environment{Vars: e.Vars, Extras: extras}
}

func sysPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "win32"
	case "darwin":
		return "darwin"
	default:
		return runtime.GOOS
	}
}

func platformSystem() string {
	switch runtime.GOOS {
	case "windows":
		return "Windows"
	case "darwin":
		return "Darwin"
	case "linux":
		return "Linux"
	default:
		return runtime.GOOS
	}
}

func osName() string {
	if runtime.GOOS == "windows" {
		return "nt"
	}
	return "posix"
}

func platformMachine() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "i686"
	default:
		return runtime.GOARCH
	}
}
