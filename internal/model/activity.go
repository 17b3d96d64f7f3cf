package model

import "strings"

// ActivityType is the canonical Hebrew label of a workshop category
type ActivityType string

const (
	ActivityPostBirth ActivityType = "התעמלות לאחר לידה"
	ActivityPregnancy ActivityType = "התעמלות הריון"
)

// ActivityTypes lists the categories in classification priority order
var ActivityTypes = []ActivityType{ActivityPostBirth, ActivityPregnancy}

// Code returns the stable machine identifier of the category
func (a ActivityType) Code() string {
	switch a {
	case ActivityPostBirth:
		return "post_birth_exercise"
	case ActivityPregnancy:
		return "pregnancy_exercise"
	default:
		return ""
	}
}

// FileSuffix returns the short name used in generated file names
func (a ActivityType) FileSuffix() string {
	switch a {
	case ActivityPostBirth:
		return "post_birth"
	case ActivityPregnancy:
		return "pregnancy"
	default:
		return ""
	}
}

// ParseActivityType maps a label, code or file suffix to its category.
// Matching ignores surrounding whitespace and Latin case.
func ParseActivityType(s string) (ActivityType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	for _, a := range ActivityTypes {
		if s == string(a) || s == a.Code() || s == a.FileSuffix() {
			return a, true
		}
	}
	return "", false
}

// ActivityPtr returns a pointer to a copy of a, for optional JSON fields
func ActivityPtr(a ActivityType) *ActivityType {
	return &a
}
