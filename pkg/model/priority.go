package model

import "strings"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority lowercases s and maps anything unknown to medium.
func ParsePriority(s string) Priority {
	return Priority(strings.ToLower(strings.TrimSpace(s))).Normalize()
}

// Valid reports whether p is one of low, medium or high.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (p Priority) Normalize() Priority {
	if p.Valid() {
		return p
	}
	return PriorityMedium
}

// Weight orders priorities for sorting: high=3, medium=2, low=1.
// Unknown values weigh as medium.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}
