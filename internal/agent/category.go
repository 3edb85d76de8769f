package agent

import (
	"fmt"
	"strings"
)

// Category classifies a goal and selects filter, search-trick and extraction
// behavior. The whole category→behavior mapping lives in the table below so
// each branch can be covered by tests in one place.
type Category string

const (
	CategoryEmail   Category = "email"
	CategoryWebsite Category = "website"
	CategoryJob     Category = "job"
	CategoryGeneric Category = "generic"
)

type categorySpec struct {
	// goalKeywords classify the goal text.
	goalKeywords []string
	// relevanceKeywords gate raw hits before any fetch cost is incurred. At
	// least one must appear in the hit's title or body.
	relevanceKeywords []string
	// searchTricks are operators appended to a base query to form enhanced
	// variants.
	searchTricks []string
	// fallbackQueries produces deterministic queries when the planning
	// service fails or returns unparseable output.
	fallbackQueries func(goal string) []string
}

var categoryTable = map[Category]categorySpec{
	CategoryEmail: {
		goalKeywords:      []string{"email", "contact", "recruiter"},
		relevanceKeywords: []string{"email", "contact", "recruiter", "hiring"},
		searchTricks:      []string{"site:linkedin.com", `"@company.com"`, "contact email", "recruiter email", "hiring manager"},
		fallbackQueries: func(string) []string {
			return []string{
				"recruiter email contacts",
				"HR manager email directory",
				"talent acquisition email list",
			}
		},
	},
	CategoryJob: {
		goalKeywords:      []string{"job", "career", "position", "hiring"},
		relevanceKeywords: []string{"job", "career", "position", "hiring"},
		searchTricks:      []string{"site:indeed.com", "site:glassdoor.com", "site:linkedin.com/jobs", "hiring", "careers"},
		fallbackQueries: func(goal string) []string {
			first := firstWord(goal)
			return []string{
				fmt.Sprintf("%s job openings", first),
				fmt.Sprintf("%s careers hiring now", first),
				fmt.Sprintf("%s positions apply", first),
			}
		},
	},
	CategoryWebsite: {
		goalKeywords:      []string{"website", "tool", "platform"},
		relevanceKeywords: []string{"tool", "platform", "service", "website"},
		searchTricks:      []string{"best tools 2024", "top resources", "list of sites", "directory"},
		fallbackQueries: func(goal string) []string {
			first := firstWord(goal)
			return []string{
				fmt.Sprintf("best %s websites", first),
				fmt.Sprintf("top %s tools online", first),
				fmt.Sprintf("useful %s resources", first),
			}
		},
	},
	CategoryGeneric: {
		fallbackQueries: func(goal string) []string {
			first := firstWord(goal)
			return []string{
				fmt.Sprintf("best %s resources", first),
				fmt.Sprintf("top %s guides", first),
				fmt.Sprintf("%s overview", first),
			}
		},
	},
}

// inferOrder fixes precedence when a goal mentions several categories
// ("recruiter emails for engineering jobs" is an email goal).
var inferOrder = []Category{CategoryEmail, CategoryJob, CategoryWebsite}

// InferCategory classifies a goal by keyword matching.
func InferCategory(goal string) Category {
	lower := strings.ToLower(goal)
	for _, c := range inferOrder {
		for _, kw := range categoryTable[c].goalKeywords {
			if strings.Contains(lower, kw) {
				return c
			}
		}
	}
	return CategoryGeneric
}

// IsRelevant is the heuristic gate applied to a raw hit before fetching it.
// Binary accept/reject; unknown categories are permissive.
func (c Category) IsRelevant(title, body string) bool {
	spec, ok := categoryTable[c]
	if !ok || len(spec.relevanceKeywords) == 0 {
		return true
	}
	title = strings.ToLower(title)
	body = strings.ToLower(body)
	for _, kw := range spec.relevanceKeywords {
		if strings.Contains(title, kw) || strings.Contains(body, kw) {
			return true
		}
	}
	return false
}

// SearchTricks returns the operators used to build enhanced query variants.
func (c Category) SearchTricks() []string {
	return categoryTable[c].searchTricks
}

// FallbackQueries returns deterministic templated queries for the goal.
func (c Category) FallbackQueries(goal string) []string {
	spec, ok := categoryTable[c]
	if !ok {
		spec = categoryTable[CategoryGeneric]
	}
	return spec.fallbackQueries(goal)
}

func firstWord(goal string) string {
	fields := strings.Fields(goal)
	if len(fields) == 0 {
		return "general"
	}
	return strings.ToLower(fields[0])
}
