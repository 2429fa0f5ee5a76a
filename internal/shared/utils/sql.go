package utils

import "strings"

// JoinWithAnd joins WHERE clauses with AND.
func JoinWithAnd(clauses []string) string {
	if len(clauses) == 0 {
		return "1=1"
	}
	return strings.Join(clauses, " AND ")
}

// JoinWithOr joins WHERE clauses with OR.
func JoinWithOr(clauses []string) string {
	return strings.Join(clauses, " OR ")
}

// LikePattern wraps a term for a case-insensitive substring match.
func LikePattern(term string) string {
	return "%" + term + "%"
}
