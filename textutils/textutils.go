// Package textutils holds small string helpers shared by the logger and
// the CLI output.
package textutils

import "strings"

// IndentString prefixes every non-blank line of s with n copies of
// indent. Blank lines stay empty so no trailing whitespace leaks into
// the output.
func IndentString(s, indent string, n int) string {
	prefix := strings.Repeat(indent, n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// Pluralize returns word with an "s" appended unless n is 1.
func Pluralize(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
