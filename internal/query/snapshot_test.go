package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "before.snap")

	exp := buildExplanation(t, "not done\ntags include #home")

	if err := SaveExplanation(path, exp); err != nil {
		t.Fatalf("SaveExplanation error: %v", err)
	}

	loaded, err := LoadExplanation(path)
	if err != nil {
		t.Fatalf("LoadExplanation error: %v", err)
	}

	if diff := cmp.Diff(exp, loaded); diff != "" {
		t.Errorf("snapshot round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestLoadExplanationMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadExplanation(filepath.Join(t.TempDir(), "absent.snap"))
	if err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}

func TestLoadExplanationCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corrupt.snap")
	if err := os.WriteFile(path, []byte("not a snapshot"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadExplanation(path); err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
}
