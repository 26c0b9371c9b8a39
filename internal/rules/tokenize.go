package rules

import "strings"

// Tokenize splits input into its maximal non-whitespace runs.
// Repeated whitespace never produces empty tokens; empty input yields an
// empty slice.
func Tokenize(input string) []string {
	return strings.Fields(input)
}

// Assemble joins clauses with " AND ", skipping blank entries.
// An empty result means "no filter".
func Assemble(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, " AND ")
}
