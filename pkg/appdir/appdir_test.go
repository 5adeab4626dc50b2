package appdir

import (
	"path/filepath"
	"testing"
)

func TestDirHonorsOverride(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv(EnvHome, tmp)

	if got := Dir(); got != tmp {
		t.Fatalf("expected %s, got %s", tmp, got)
	}
	if got := Path("byteshift.db"); got != filepath.Join(tmp, "byteshift.db") {
		t.Fatalf("unexpected path %s", got)
	}
}
