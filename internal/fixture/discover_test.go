package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xyproto/flapcheck/internal/domain/harness"
)

func testCaseWithExpected(path string) harness.TestCase {
	return harness.TestCase{Name: "case", ExpectedPath: path}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestScanPairsAndOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "zeta.flap", "program")
	writeFile(t, dir, "zeta.result", "output")
	writeFile(t, dir, "alpha.flap", "program")
	writeFile(t, dir, "alpha.result", "output")
	writeFile(t, dir, "mid.flap", "program")
	writeFile(t, dir, "mid.result", "output")

	cases, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := []string{"alpha", "mid", "zeta"}
	if len(cases) != len(want) {
		t.Fatalf("expected %d cases, got %d", len(want), len(cases))
	}
	for i, name := range want {
		if cases[i].Name != name {
			t.Fatalf("case %d: got %q, want %q", i, cases[i].Name, name)
		}
		if cases[i].SourcePath != filepath.Join(dir, name+SourceExt) {
			t.Fatalf("case %d: unexpected source path %q", i, cases[i].SourcePath)
		}
		if cases[i].ExpectedPath != filepath.Join(dir, name+ExpectedExt) {
			t.Fatalf("case %d: unexpected expected path %q", i, cases[i].ExpectedPath)
		}
	}
}

func TestScanSkipsFixturelessSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "paired.flap", "program")
	writeFile(t, dir, "paired.result", "output")
	writeFile(t, dir, "orphan.flap", "program")
	writeFile(t, dir, "stray.result", "output")
	writeFile(t, dir, "unrelated.txt", "noise")

	cases, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(cases) != 1 || cases[0].Name != "paired" {
		t.Fatalf("expected only the paired case, got %v", cases)
	}
}

func TestScanMissingDirectory(t *testing.T) {
	t.Parallel()

	if _, err := Scan(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected an error for a missing suite directory")
	}
}

func TestLoadExpected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	expectedPath := writeFile(t, dir, "case.result", "expected text\n")

	data, err := LoadExpected(testCaseWithExpected(expectedPath))
	if err != nil {
		t.Fatalf("LoadExpected: %v", err)
	}
	if string(data) != "expected text\n" {
		t.Fatalf("unexpected fixture contents %q", data)
	}

	if _, err := LoadExpected(testCaseWithExpected(filepath.Join(dir, "missing.result"))); err == nil {
		t.Fatalf("expected an error for a missing fixture")
	}
}
