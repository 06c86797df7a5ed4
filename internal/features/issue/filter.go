package issue

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FilterOptions are conjunctive: every provided predicate must hold. The
// labels predicate is itself a conjunction, an issue must carry every listed
// label to match.
type FilterOptions struct {
	Status   *Status
	Priority *Priority
	Assignee *primitive.ObjectID
	Labels   []primitive.ObjectID
}

func (o FilterOptions) empty() bool {
	return o.Status == nil && o.Priority == nil && o.Assignee == nil && len(o.Labels) == 0
}

// GroupByStatus partitions issues into board columns, preserving input order
// within each bucket. Issues with an unknown status are dropped rather than
// erroring, lenient on purpose so a bad document never breaks the board.
func GroupByStatus(issues []Issue) map[Status][]Issue {
	grouped := make(map[Status][]Issue, len(AllStatuses))
	for _, s := range AllStatuses {
		grouped[s] = []Issue{}
	}
	for _, is := range issues {
		if !is.Status.Valid() {
			continue
		}
		grouped[is.Status] = append(grouped[is.Status], is)
	}
	return grouped
}

// Filter returns the issues matching every predicate in opts, preserving
// input order.
func Filter(issues []Issue, opts FilterOptions) []Issue {
	if opts.empty() {
		return issues
	}

	var out []Issue
	for _, is := range issues {
		if opts.Status != nil && is.Status != *opts.Status {
			continue
		}
		if opts.Priority != nil && is.Priority != *opts.Priority {
			continue
		}
		if opts.Assignee != nil && (is.Assignee == nil || *is.Assignee != *opts.Assignee) {
			continue
		}
		if !hasAllLabels(is.Labels, opts.Labels) {
			continue
		}
		out = append(out, is)
	}
	return out
}

func hasAllLabels(have, want []primitive.ObjectID) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Search matches query as a case-insensitive substring of title or
// description. An empty query returns the input unchanged.
func Search(issues []Issue, query string) []Issue {
	if query == "" {
		return issues
	}
	q := strings.ToLower(query)

	var out []Issue
	for _, is := range issues {
		if strings.Contains(strings.ToLower(is.Title), q) ||
			strings.Contains(strings.ToLower(is.Description), q) {
			out = append(out, is)
		}
	}
	return out
}

// Query applies filters before search when both are active.
func Query(issues []Issue, opts FilterOptions, query string) []Issue {
	return Search(Filter(issues, opts), query)
}
