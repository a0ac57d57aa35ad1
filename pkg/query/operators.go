package query

import "strings"

// updatingOperators are plan operators that may mutate the graph. A plan
// containing any of these must be routed to writers. Schema operators are
// matched by prefix below because the planner names them per DDL statement
// (CreateIndex, CreateConstraint, DropIndex, ...).
var updatingOperators = map[string]bool{
	"Create":                  true,
	"Merge":                   true,
	"Delete":                  true,
	"DetachDelete":            true,
	"SetProperty":             true,
	"SetProperties":           true,
	"SetPropertiesFromMap":    true,
	"SetLabels":               true,
	"RemoveLabels":            true,
	"LockingMerge":            true,
	"ProcedureCall":           true,
	"Foreach":                 true,
}

// readOnlyOperators are plan operators known to never mutate the graph.
// Any operator in neither set is unknown to the evaluator and treated as
// potentially updating, so an out-of-date table fails safe.
var readOnlyOperators = map[string]bool{
	"AllNodesScan":                    true,
	"AntiSemiApply":                   true,
	"Apply":                           true,
	"Argument":                        true,
	"AssertSameNode":                  true,
	"AssertingMultiNodeIndexSeek":     true,
	"CacheProperties":                 true,
	"CartesianProduct":                true,
	"DirectedRelationshipByIdSeek":    true,
	"DirectedRelationshipIndexScan":   true,
	"DirectedRelationshipIndexSeek":   true,
	"DirectedRelationshipTypeScan":    true,
	"Distinct":                        true,
	"Eager":                           true,
	"EagerAggregation":                true,
	"EmptyResult":                     true,
	"EmptyRow":                        true,
	"Expand":                          true,
	"ExpandAll":                       true,
	"ExpandInto":                      true,
	"Filter":                          true,
	"LetAntiSemiApply":                true,
	"LetSemiApply":                    true,
	"Limit":                           true,
	"LoadCSV":                         true,
	"MultiNodeIndexSeek":              true,
	"NodeByElementIdSeek":             true,
	"NodeByIdSeek":                    true,
	"NodeByLabelScan":                 true,
	"NodeCountFromCountStore":         true,
	"NodeHashJoin":                    true,
	"NodeIndexContainsScan":           true,
	"NodeIndexEndsWithScan":           true,
	"NodeIndexScan":                   true,
	"NodeIndexSeek":                   true,
	"NodeLeftOuterHashJoin":           true,
	"NodeRightOuterHashJoin":          true,
	"NodeUniqueIndexSeek":             true,
	"Optional":                        true,
	"OptionalExpand":                  true,
	"OrderedAggregation":              true,
	"OrderedDistinct":                 true,
	"PartialSort":                     true,
	"PartialTop":                      true,
	"ProduceResults":                  true,
	"ProjectEndpoints":                true,
	"Projection":                      true,
	"RelationshipCountFromCountStore": true,
	"RollUpApply":                     true,
	"SelectOrAntiSemiApply":           true,
	"SelectOrSemiApply":               true,
	"SemiApply":                       true,
	"ShortestPath":                    true,
	"Skip":                            true,
	"Sort":                            true,
	"Top":                             true,
	"TriadicSelection":                true,
	"UndirectedRelationshipByIdSeek":  true,
	"UndirectedRelationshipIndexScan": true,
	"UndirectedRelationshipIndexSeek": true,
	"UndirectedRelationshipTypeScan":  true,
	"Union":                           true,
	"Unwind":                          true,
	"ValueHashJoin":                   true,
	"VarLengthExpand":                 true,
}

// normalizeOperator strips the decorations the planner attaches to
// operator names: a "@database" suffix and parenthesised type annotations
// such as "VarLengthExpand(All)".
func normalizeOperator(name string) string {
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if paren := strings.IndexByte(name, '('); paren >= 0 {
		name = name[:paren]
	}
	return strings.TrimSpace(name)
}

// operatorUpdates reports whether a normalized operator name may mutate
// the graph. Unknown operators return true: the evaluator over-approximates
// rather than routing a write to a read replica.
func operatorUpdates(name string) bool {
	if updatingOperators[name] {
		return true
	}
	if strings.HasPrefix(name, "Create") || strings.HasPrefix(name, "Drop") {
		return true
	}
	return !readOnlyOperators[name]
}

// unknownOperator reports whether the evaluator recognises the operator
// in neither table.
func unknownOperator(name string) bool {
	if updatingOperators[name] || readOnlyOperators[name] {
		return false
	}
	return !strings.HasPrefix(name, "Create") && !strings.HasPrefix(name, "Drop")
}
