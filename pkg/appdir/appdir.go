package appdir

import (
	"os"
	"path/filepath"
)

// EnvHome overrides the application directory when set.
const EnvHome = "BYTESHIFT_HOME"

// Dir returns the per-user application directory, ~/.byteshift by default.
// It falls back to the working directory when no home directory is known.
func Dir() string {
	if d := os.Getenv(EnvHome); d != "" {
		return d
	}
	s, err := os.UserHomeDir()
	if err != nil {
		return ".byteshift"
	}
	return filepath.Join(s, ".byteshift")
}

// Path joins name onto Dir().
func Path(name string) string {
	return filepath.Join(Dir(), name)
}

