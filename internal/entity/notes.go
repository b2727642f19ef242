package entity

import (
	"fmt"
	"strings"
)

// Notes is the append-only provenance trail carried alongside a record.
type Notes []string

// Add appends a formatted note.
func (n *Notes) Add(format string, args ...any) {
	*n = append(*n, fmt.Sprintf(format, args...))
}

// Contains reports whether any note contains substr.
func (n Notes) Contains(substr string) bool {
	for _, s := range n {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
