package core

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Category is the closed set of expense categories.
type Category string

const (
	Shopping  Category = "shopping"
	Food      Category = "food"
	Transport Category = "transport"
	Home      Category = "home"
	Other     Category = "other"
)

// canonical order; also the tie-break order for TopCategory
var categories = []Category{Shopping, Food, Transport, Home, Other}

// maxSuggestDistance is the largest edit distance for which ParseCategory
// still proposes a correction.
const maxSuggestDistance = 2

// Categories returns every category in canonical order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// DefaultCategory is preselected when a front end offers a new expense form.
func DefaultCategory() Category {
	return Shopping
}

func (c Category) String() string {
	return string(c)
}

// IsValid reports whether c belongs to the closed category set.
func (c Category) IsValid() bool {
	return c.rank() >= 0
}

func (c Category) rank() int {
	for i, v := range categories {
		if v == c {
			return i
		}
	}
	return -1
}

// ParseCategory matches s case-insensitively against the category set.
// Unknown values yield a *ValidationError whose Suggestion names the
// closest category, when one is near enough.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	c := Category(norm)
	if c.IsValid() {
		return c, nil
	}
	return "", &ValidationError{
		Field:      "category",
		Err:        ErrUnknownCategory,
		Suggestion: suggestCategory(norm),
	}
}

func suggestCategory(s string) string {
	if s == "" {
		return ""
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, c := range categories {
		if d := levenshtein.ComputeDistance(s, string(c)); d < bestDist {
			best, bestDist = string(c), d
		}
	}
	return best
}
