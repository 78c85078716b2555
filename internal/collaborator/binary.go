package collaborator

import (
	"os"
	"path/filepath"
	"runtime"
)

// BundleDir is the folder name searched next to the working directory and
// the executable, and the folder the installer writes to.
const BundleDir = "scrcpy-bin"

// Resolver locates the adb and scrcpy executables.
type Resolver struct {
	// Folder is the configured tools folder, searched after a per-call
	// override.
	Folder string

	cwd    func() (string, error)
	exe    func() (string, error)
	exists func(string) bool
}

// NewResolver creates a resolver using the process environment.
func NewResolver(folder string) *Resolver {
	return &Resolver{
		Folder: folder,
		cwd:    os.Getwd,
		exe:    os.Executable,
		exists: fileExists,
	}
}

// Resolve returns the path to run for name. Search order: the override
// folder, the configured folder, ./scrcpy-bin, <exe dir>/scrcpy-bin. When
// none holds the file the bare name is returned for a PATH lookup.
func (r *Resolver) Resolve(name, override string) string {
	file := ExecutableName(name)

	candidates := make([]string, 0, 4)
	if override != "" {
		candidates = append(candidates, filepath.Join(override, file))
	}
	if r.Folder != "" && r.Folder != override {
		candidates = append(candidates, filepath.Join(r.Folder, file))
	}
	if dir, err := r.cwd(); err == nil {
		candidates = append(candidates, filepath.Join(dir, BundleDir, file))
	}
	if exe, err := r.exe(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), BundleDir, file))
	}

	for _, c := range candidates {
		if r.exists(c) {
			return c
		}
	}
	return name
}

// ExecutableName appends the platform executable extension.
func ExecutableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
