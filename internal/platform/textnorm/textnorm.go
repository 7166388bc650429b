// Package textnorm normalises user-entered text before it is stored or searched.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Clean: NFKC（全角英数→半角、半角カナ→全角）して前後の空白を落とす
func Clean(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// CleanPtr is Clean for optional fields; blank becomes nil.
func CleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Clean(*s)
	if v == "" {
		return nil
	}
	return &v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains builds a LIKE pattern matching s anywhere, with wildcards in s escaped.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(Clean(s)) + "%"
}
