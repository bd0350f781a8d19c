package scan

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// DetectTestCommand infers the project's test command from its build
// files. Returns the empty string when nothing recognizable is found, in
// which case the config must supply one.
func DetectTestCommand(root string) string {
	if data, err := os.ReadFile(filepath.Join(root, "go.mod")); err == nil {
		if f, err := modfile.ParseLax("go.mod", data, nil); err == nil && f.Module != nil {
			return "go test ./..."
		}
	}

	if hasNpmTestScript(filepath.Join(root, "package.json")) {
		return "npm test"
	}

	if _, err := os.Stat(filepath.Join(root, "Cargo.toml")); err == nil {
		return "cargo test"
	}

	for _, marker := range []string{"pytest.ini", "pyproject.toml", "setup.py"} {
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			return "pytest"
		}
	}

	if hasMakeTarget(filepath.Join(root, "Makefile"), "test") {
		return "make test"
	}

	return ""
}

// hasNpmTestScript reports whether package.json declares a test script.
func hasNpmTestScript(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var pkg struct {
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return false
	}
	return pkg.Scripts["test"] != ""
}

// hasMakeTarget reports whether a Makefile declares the given target.
func hasMakeTarget(path, target string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, target+":") {
			return true
		}
	}
	return false
}
