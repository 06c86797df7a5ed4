package issue

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func makeIssue(title string, status Status, priority Priority, labels ...primitive.ObjectID) Issue {
	return Issue{
		ID:       primitive.NewObjectID(),
		Title:    title,
		Status:   status,
		Priority: priority,
		Labels:   labels,
	}
}

func titles(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Title
	}
	return out
}

func sameTitles(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGroupByStatusPreservesOrder(t *testing.T) {
	issues := []Issue{
		makeIssue("a", StatusBacklog, PriorityNone),
		makeIssue("b", StatusInProgress, PriorityNone),
		makeIssue("c", StatusBacklog, PriorityNone),
		makeIssue("d", StatusCompleted, PriorityNone),
		makeIssue("e", StatusBacklog, PriorityNone),
	}

	grouped := GroupByStatus(issues)

	if got := titles(grouped[StatusBacklog]); !sameTitles(got, "a", "c", "e") {
		t.Errorf("backlog = %v, want [a c e]", got)
	}
	if got := titles(grouped[StatusInProgress]); !sameTitles(got, "b") {
		t.Errorf("in-progress = %v, want [b]", got)
	}
	if len(grouped[StatusPaused]) != 0 {
		t.Errorf("paused = %v, want empty", grouped[StatusPaused])
	}
}

func TestGroupByStatusDropsUnknown(t *testing.T) {
	issues := []Issue{
		makeIssue("ok", StatusToDo, PriorityNone),
		makeIssue("junk", Status("half-done"), PriorityNone),
	}

	grouped := GroupByStatus(issues)

	total := 0
	for _, bucket := range grouped {
		total += len(bucket)
	}
	if total != 1 {
		t.Errorf("grouped %d issues, want 1 (unknown status dropped)", total)
	}
}

func TestFilterIsConjunctive(t *testing.T) {
	issues := []Issue{
		makeIssue("match", StatusToDo, PriorityHigh),
		makeIssue("wrong status", StatusCompleted, PriorityHigh),
		makeIssue("wrong priority", StatusToDo, PriorityLow),
	}

	status := StatusToDo
	priority := PriorityHigh
	got := Filter(issues, FilterOptions{Status: &status, Priority: &priority})

	if !sameTitles(titles(got), "match") {
		t.Errorf("got %v, want [match]", titles(got))
	}
}

func TestFilterLabelsRequireAll(t *testing.T) {
	bug := primitive.NewObjectID()
	docs := primitive.NewObjectID()

	issues := []Issue{
		makeIssue("both", StatusToDo, PriorityNone, bug, docs),
		makeIssue("only bug", StatusToDo, PriorityNone, bug),
		makeIssue("only docs", StatusToDo, PriorityNone, docs),
		makeIssue("neither", StatusToDo, PriorityNone),
	}

	got := Filter(issues, FilterOptions{Labels: []primitive.ObjectID{bug, docs}})
	if !sameTitles(titles(got), "both") {
		t.Errorf("got %v, want [both]", titles(got))
	}
}

func TestFilterByAssignee(t *testing.T) {
	alice := primitive.NewObjectID()
	assigned := makeIssue("assigned", StatusToDo, PriorityNone)
	assigned.Assignee = &alice

	issues := []Issue{assigned, makeIssue("unassigned", StatusToDo, PriorityNone)}

	got := Filter(issues, FilterOptions{Assignee: &alice})
	if !sameTitles(titles(got), "assigned") {
		t.Errorf("got %v, want [assigned]", titles(got))
	}
}

func TestFilterEmptyOptionsPassesThrough(t *testing.T) {
	issues := []Issue{makeIssue("a", StatusToDo, PriorityNone)}
	if got := Filter(issues, FilterOptions{}); len(got) != 1 {
		t.Errorf("got %d issues, want 1", len(got))
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	issues := []Issue{
		makeIssue("Fix LOGIN flow", StatusToDo, PriorityNone),
		makeIssue("unrelated", StatusToDo, PriorityNone),
	}
	issues[1].Description = "touches the login page too"

	got := Search(issues, "login")
	if !sameTitles(titles(got), "Fix LOGIN flow", "unrelated") {
		t.Errorf("got %v, want both (title and description match)", titles(got))
	}
}

func TestSearchEmptyQueryReturnsInput(t *testing.T) {
	issues := []Issue{makeIssue("a", StatusToDo, PriorityNone)}
	if got := Search(issues, ""); len(got) != len(issues) {
		t.Errorf("got %d issues, want %d", len(got), len(issues))
	}
}

func TestQueryFiltersBeforeSearch(t *testing.T) {
	issues := []Issue{
		makeIssue("login button", StatusToDo, PriorityNone),
		makeIssue("login crash", StatusCompleted, PriorityNone),
		makeIssue("signup page", StatusToDo, PriorityNone),
	}

	status := StatusToDo
	got := Query(issues, FilterOptions{Status: &status}, "login")
	if !sameTitles(titles(got), "login button") {
		t.Errorf("got %v, want [login button]", titles(got))
	}
}
