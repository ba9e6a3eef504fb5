package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xyproto/flapcheck/internal/domain/harness"
)

const (
	// SourceExt is the extension of fixture source programs.
	SourceExt = ".flap"
	// ExpectedExt is the extension of paired expected-output files.
	ExpectedExt = ".result"
)

// Scan enumerates the fixture pairs in dir.
//
// A source file participates only when its sibling expected-output file
// exists; sources without one are skipped silently. The returned cases are
// sorted by name so the streamed report order is reproducible across runs.
func Scan(dir string) ([]harness.TestCase, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read suite directory %s: %w", dir, err)
	}

	var cases []harness.TestCase
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), SourceExt) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), SourceExt)
		expectedPath := filepath.Join(dir, name+ExpectedExt)
		if _, err := os.Stat(expectedPath); err != nil {
			continue
		}

		cases = append(cases, harness.TestCase{
			Name:         name,
			SourcePath:   filepath.Join(dir, entry.Name()),
			ExpectedPath: expectedPath,
		})
	}

	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })

	return cases, nil
}

// LoadExpected reads the expected-output fixture for a test case.
func LoadExpected(tc harness.TestCase) ([]byte, error) {
	data, err := os.ReadFile(tc.ExpectedPath)
	if err != nil {
		return nil, fmt.Errorf("read expected output for %s: %w", tc.Name, err)
	}
	return data, nil
}
