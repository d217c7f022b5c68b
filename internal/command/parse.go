package command

import (
	"strings"
)

// Line is a parsed command-line entry.
type Line struct {
	Name string
	Args []string
	Raw  string
}

// Parse splits input into a command name and arguments. Double-quoted
// segments stay together with the quotes removed. It reports false for
// blank input.
func Parse(input string) (Line, bool) {
	raw := strings.TrimSpace(input)
	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return Line{}, false
	}
	args := []string{}
	if len(tokens) > 1 {
		args = tokens[1:]
	}
	return Line{Name: tokens[0], Args: args, Raw: raw}, true
}

// tokenize yields quoted segments with non-empty content and runs of
// characters that are neither whitespace nor quotes. Stray quotes are
// skipped.
func tokenize(raw string) []string {
	var tokens []string
	i := 0
	for i < len(raw) {
		switch {
		case isSpace(raw[i]):
			i++
		case raw[i] == '"':
			end := strings.IndexByte(raw[i+1:], '"')
			if end > 0 {
				tokens = append(tokens, raw[i+1:i+1+end])
				i += end + 2
				continue
			}
			i++
		default:
			start := i
			for i < len(raw) && !isSpace(raw[i]) && raw[i] != '"' {
				i++
			}
			tokens = append(tokens, raw[start:i])
		}
	}
	return tokens
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
