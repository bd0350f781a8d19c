package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectTestCommand(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "go module",
			files: map[string]string{"go.mod": "module example.com/project\n\ngo 1.25\n"},
			want:  "go test ./...",
		},
		{
			name:  "invalid go.mod falls through",
			files: map[string]string{"go.mod": "this is not a module file"},
			want:  "",
		},
		{
			name:  "npm project with test script",
			files: map[string]string{"package.json": `{"name":"p","scripts":{"test":"jest"}}`},
			want:  "npm test",
		},
		{
			name:  "npm project without test script",
			files: map[string]string{"package.json": `{"name":"p","scripts":{"build":"tsc"}}`},
			want:  "",
		},
		{
			name:  "cargo project",
			files: map[string]string{"Cargo.toml": "[package]\nname = \"p\"\n"},
			want:  "cargo test",
		},
		{
			name:  "python project",
			files: map[string]string{"pyproject.toml": "[tool.pytest.ini_options]\n"},
			want:  "pytest",
		},
		{
			name:  "makefile with test target",
			files: map[string]string{"Makefile": "build:\n\tgo build\n\ntest:\n\tgo test\n"},
			want:  "make test",
		},
		{
			name:  "makefile without test target",
			files: map[string]string{"Makefile": "build:\n\tgo build\n"},
			want:  "",
		},
		{
			name:  "go module wins over npm",
			files: map[string]string{"go.mod": "module example.com/project\n", "package.json": `{"scripts":{"test":"jest"}}`},
			want:  "go test ./...",
		},
		{
			name:  "empty project",
			files: map[string]string{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for name, content := range tt.files {
				if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0644); err != nil {
					t.Fatalf("Failed to write %s: %v", name, err)
				}
			}

			if got := DetectTestCommand(root); got != tt.want {
				t.Errorf("DetectTestCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}
