package harness

// TestCase identifies one fixture pair discovered in the suite directory.
//
// A TestCase is immutable once discovered; it carries no result state.
type TestCase struct {
	Name         string
	SourcePath   string
	ExpectedPath string
}
