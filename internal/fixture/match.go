package fixture

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// comparison is the decoded form of an actual/expected output pair. When
// either side is not valid UTF-8, textual is false and the pair must be
// compared byte for byte, with no wildcard support.
type comparison struct {
	textual  bool
	actual   string
	expected string
}

func decode(actual, expected []byte) comparison {
	if !utf8.Valid(actual) || !utf8.Valid(expected) {
		return comparison{}
	}
	return comparison{
		textual:  true,
		actual:   string(actual),
		expected: string(expected),
	}
}

// Match reports whether actual output satisfies the expected fixture.
//
// On the text path both sides lose one trailing line terminator, then are
// compared line by line: the line counts must agree exactly, trailing
// whitespace is ignored per line, and each `*` in an expected line stands
// for one or more non-whitespace characters. Wildcards never absorb whole
// lines or spill across whitespace.
func Match(actual, expected []byte) bool {
	cmp := decode(actual, expected)
	if !cmp.textual {
		return bytes.Equal(actual, expected)
	}

	actualLines := strings.Split(trimFinalNewline(cmp.actual), "\n")
	expectedLines := strings.Split(trimFinalNewline(cmp.expected), "\n")

	if len(actualLines) != len(expectedLines) {
		return false
	}

	for i := range expectedLines {
		if !lineMatches(actualLines[i], expectedLines[i]) {
			return false
		}
	}

	return true
}

// trimFinalNewline strips exactly one trailing line terminator. Fixtures
// commonly end with a final newline that must not count as an extra line.
func trimFinalNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		s = strings.TrimSuffix(s, "\n")
		s = strings.TrimSuffix(s, "\r")
	}
	return s
}

func lineMatches(actual, expected string) bool {
	actual = strings.TrimRightFunc(actual, unicode.IsSpace)
	expected = strings.TrimRightFunc(expected, unicode.IsSpace)

	if !strings.Contains(expected, "*") {
		return actual == expected
	}

	pattern := strings.ReplaceAll(regexp.QuoteMeta(expected), `\*`, `\S+`)
	re, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
	if err != nil {
		return false
	}

	return re.MatchString(actual)
}
