package bolt

import "github.com/neo4j/neo4j-go-driver/v5/neo4j"

// Summary is the driver-independent view of a result summary. The adapter
// converts the driver's summary interfaces eagerly so callers and fakes
// deal in plain values.
type Summary struct {
	// Counters are the update counters reported by the server.
	Counters Counters

	// Notifications are the server notices attached to the result, in
	// server order.
	Notifications []Notification

	// PlanOperators are the operator names of the query plan, root first,
	// flattened depth-first. Empty unless the statement was explained or
	// profiled.
	PlanOperators []string
}

// Counters mirrors the server's update counters.
type Counters struct {
	NodesCreated          int
	NodesDeleted          int
	RelationshipsCreated  int
	RelationshipsDeleted  int
	PropertiesSet         int
	LabelsAdded           int
	LabelsRemoved         int
	IndexesAdded          int
	IndexesRemoved        int
	ConstraintsAdded      int
	ConstraintsRemoved    int
	SystemUpdates         int
	ContainsUpdates       bool
	ContainsSystemUpdates bool
}

// Notification is a server notice, such as a deprecation or a missing
// index hint.
type Notification struct {
	Code        string
	Title       string
	Description string
	Severity    string

	// Position locates the notice in the statement text. Nil when the
	// server attached no position.
	Position *InputPosition
}

// InputPosition points at a location in the statement text.
type InputPosition struct {
	// Offset is the zero-based character offset into the statement.
	Offset int
	Line   int
	Column int
}

// summarize converts a driver summary into a [Summary].
func summarize(s neo4j.ResultSummary) Summary {
	out := Summary{}

	if c := s.Counters(); c != nil {
		out.Counters = Counters{
			NodesCreated:          c.NodesCreated(),
			NodesDeleted:          c.NodesDeleted(),
			RelationshipsCreated:  c.RelationshipsCreated(),
			RelationshipsDeleted:  c.RelationshipsDeleted(),
			PropertiesSet:         c.PropertiesSet(),
			LabelsAdded:           c.LabelsAdded(),
			LabelsRemoved:         c.LabelsRemoved(),
			IndexesAdded:          c.IndexesAdded(),
			IndexesRemoved:        c.IndexesRemoved(),
			ConstraintsAdded:      c.ConstraintsAdded(),
			ConstraintsRemoved:    c.ConstraintsRemoved(),
			SystemUpdates:         c.SystemUpdates(),
			ContainsUpdates:       c.ContainsUpdates(),
			ContainsSystemUpdates: c.ContainsSystemUpdates(),
		}
	}

	for _, n := range s.Notifications() {
		note := Notification{
			Code:        n.Code(),
			Title:       n.Title(),
			Description: n.Description(),
			Severity:    n.Severity(),
		}
		if p := n.Position(); p != nil {
			note.Position = &InputPosition{
				Offset: p.Offset(),
				Line:   p.Line(),
				Column: p.Column(),
			}
		}
		out.Notifications = append(out.Notifications, note)
	}

	out.PlanOperators = flattenPlan(s.Plan(), nil)
	return out
}

// flattenPlan walks the plan tree depth-first collecting operator names.
func flattenPlan(plan neo4j.Plan, acc []string) []string {
	if plan == nil {
		return acc
	}
	acc = append(acc, plan.Operator())
	for _, child := range plan.Children() {
		acc = flattenPlan(child, acc)
	}
	return acc
}
