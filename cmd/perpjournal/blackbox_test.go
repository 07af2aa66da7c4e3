//go:build blackbox

package main_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var perpjournalBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "perpjournal-blackbox-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	perpjournalBin = filepath.Join(tmp, "perpjournal")

	// Build the binary once for all tests.
	cmd := exec.Command("go", "build", "-o", perpjournalBin, ".")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func run(t *testing.T, env []string, args ...string) string {
	t.Helper()

	cmd := exec.Command(perpjournalBin, args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		// CombinedOutput merges stdout/stderr; still useful in failures.
		t.Fatalf("command failed: %v\nargs: %v\noutput:\n%s", err, args, string(out))
	}
	return string(out)
}
