package jira

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameTokens(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"John Doe", []string{"John", "Doe"}},
		{"doe.john", []string{"doe", "john"}},
		{"Mary O'Connor-Smith", []string{"Mary", "O'Connor", "Smith"}},
		{"  a_b , c;d:e/f\\g  ", []string{"a", "b", "c", "d", "e", "f", "g"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, nameTokens(tt.in))
		})
	}
}

func TestMatchesName(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		wanted      string
		want        bool
	}{
		{"full name", "John Doe", "John Doe", true},
		{"full name case insensitive", "john doe", "John Doe", true},
		{"first token", "John Doe Smith", "John", true},
		{"last token", "Michael John", "John", true},
		{"substring never matches", "Jane Johnson", "John", false},
		{"one token among others", "John Johnson", "John", true},
		{"apostrophe kept in token", "John O'Connor", "O'Connor", true},
		{"hyphen splits", "Mary O'Connor-Smith", "O'Connor", true},
		{"split apostrophe does not match", "Patrick O Connor", "O'Connor", false},
		{"wanted is trimmed", "John Doe", "  doe ", true},
		{"blank display name", "   ", "John", false},
		{"composed and decomposed forms", "Rene\u0301 Meyer", "Ren\u00e9", true},
		{"unicode case folding", "ÖZIL Mesut", "özil", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesName(tt.displayName, tt.wanted))
		})
	}
}
