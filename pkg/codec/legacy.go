package codec

import (
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/StricklySoft/bolt-gateway/pkg/bolt"
	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
)

// LegacyRow renders a driver value for the row slot of the legacy view.
// Graph entities shed their identity here (it moves to the meta slot):
// nodes and relationships render as bare property maps, paths as the
// alternating sequence of property maps. Temporals and durations render
// as bare literals, points as a coordinates/crs object.
func LegacyRow(v any) (any, error) {
	switch value := v.(type) {
	case nil, bool, string, int64, float64, int, int32:
		return value, nil
	case []any:
		list := make([]any, len(value))
		for i, element := range value {
			row, err := LegacyRow(element)
			if err != nil {
				return nil, err
			}
			list[i] = row
		}
		return list, nil
	case map[string]any:
		m := make(map[string]any, len(value))
		for key, entry := range value {
			row, err := LegacyRow(entry)
			if err != nil {
				return nil, err
			}
			m[key] = row
		}
		return m, nil
	case []byte:
		return encodeHex(value), nil
	case dbtype.Date:
		return time.Time(value).Format("2006-01-02"), nil
	case dbtype.Time:
		return time.Time(value).Format("15:04:05.999999999Z07:00"), nil
	case dbtype.LocalTime:
		return time.Time(value).Format("15:04:05.999999999"), nil
	case time.Time:
		return formatDateTime(value), nil
	case dbtype.LocalDateTime:
		return time.Time(value).Format("2006-01-02T15:04:05.999999999"), nil
	case dbtype.Duration:
		return formatISODuration(value), nil
	case dbtype.Point2D:
		return legacyPoint(value.SpatialRefId, []float64{value.X, value.Y}), nil
	case dbtype.Point3D:
		return legacyPoint(value.SpatialRefId, []float64{value.X, value.Y, value.Z}), nil
	case dbtype.Node:
		return LegacyRow(value.Props)
	case dbtype.Relationship:
		return LegacyRow(value.Props)
	case dbtype.Path:
		var sequence []any
		for _, entity := range pathSequence(value) {
			row, err := LegacyRow(entity)
			if err != nil {
				return nil, err
			}
			sequence = append(sequence, row)
		}
		return sequence, nil
	default:
		return nil, gwerr.Internalf("cannot encode driver value of type %T", v)
	}
}

// LegacyMeta renders the meta slot parallel to a row slot: entity
// identity for nodes and relationships, an array of entity metas for
// paths and lists, nil for everything else.
func LegacyMeta(v any) any {
	switch value := v.(type) {
	case dbtype.Node:
		return map[string]any{"id": value.Id, "type": "node"}
	case dbtype.Relationship:
		return map[string]any{"id": value.Id, "type": "relationship"}
	case dbtype.Path:
		var metas []any
		for _, entity := range pathSequence(value) {
			metas = append(metas, LegacyMeta(entity))
		}
		return metas
	case []any:
		metas := make([]any, len(value))
		for i, element := range value {
			metas[i] = LegacyMeta(element)
		}
		return metas
	default:
		return nil
	}
}

// GraphCollector accumulates the deduplicated nodes and relationships
// referenced anywhere in a result's records, for the graph projection of
// the legacy view. Entities keep first-seen order; identity is the
// element id.
type GraphCollector struct {
	nodeIds map[string]bool
	relIds  map[string]bool
	nodes   []dbtype.Node
	rels    []dbtype.Relationship
}

// NewGraphCollector creates an empty collector.
func NewGraphCollector() *GraphCollector {
	return &GraphCollector{
		nodeIds: make(map[string]bool),
		relIds:  make(map[string]bool),
	}
}

// Collect walks a driver value, recording every node and relationship it
// references.
func (g *GraphCollector) Collect(v any) {
	switch value := v.(type) {
	case dbtype.Node:
		g.addNode(value)
	case dbtype.Relationship:
		g.addRelationship(value)
	case dbtype.Path:
		for _, node := range value.Nodes {
			g.addNode(node)
		}
		for _, rel := range value.Relationships {
			g.addRelationship(rel)
		}
	case []any:
		for _, element := range value {
			g.Collect(element)
		}
	case map[string]any:
		for _, entry := range value {
			g.Collect(entry)
		}
	}
}

func (g *GraphCollector) addNode(node dbtype.Node) {
	if g.nodeIds[node.ElementId] {
		return
	}
	g.nodeIds[node.ElementId] = true
	g.nodes = append(g.nodes, node)
}

func (g *GraphCollector) addRelationship(rel dbtype.Relationship) {
	if g.relIds[rel.ElementId] {
		return
	}
	g.relIds[rel.ElementId] = true
	g.rels = append(g.rels, rel)
}

// Build renders the projection. Entity ids are strings, matching the
// legacy HTTP API.
func (g *GraphCollector) Build() (map[string]any, error) {
	nodes := make([]any, 0, len(g.nodes))
	for _, node := range g.nodes {
		props, err := LegacyRow(node.Props)
		if err != nil {
			return nil, err
		}
		labels := node.Labels
		if labels == nil {
			labels = []string{}
		}
		nodes = append(nodes, map[string]any{
			"id":         strconv.FormatInt(node.Id, 10),
			"labels":     labels,
			"properties": props,
		})
	}

	rels := make([]any, 0, len(g.rels))
	for _, rel := range g.rels {
		props, err := LegacyRow(rel.Props)
		if err != nil {
			return nil, err
		}
		rels = append(rels, map[string]any{
			"id":         strconv.FormatInt(rel.Id, 10),
			"type":       rel.Type,
			"startNode":  strconv.FormatInt(rel.StartId, 10),
			"endNode":    strconv.FormatInt(rel.EndId, 10),
			"properties": props,
		})
	}

	return map[string]any{
		"nodes":         nodes,
		"relationships": rels,
	}, nil
}

// LegacyStats renders the update counters in the legacy stats shape.
// The relationship_deleted key is singular, matching the original API.
func LegacyStats(c bolt.Counters) map[string]any {
	return map[string]any{
		"contains_updates":        c.ContainsUpdates,
		"nodes_created":           c.NodesCreated,
		"nodes_deleted":           c.NodesDeleted,
		"properties_set":          c.PropertiesSet,
		"relationships_created":   c.RelationshipsCreated,
		"relationship_deleted":    c.RelationshipsDeleted,
		"labels_added":            c.LabelsAdded,
		"labels_removed":          c.LabelsRemoved,
		"indexes_added":           c.IndexesAdded,
		"indexes_removed":         c.IndexesRemoved,
		"constraints_added":       c.ConstraintsAdded,
		"constraints_removed":     c.ConstraintsRemoved,
		"contains_system_updates": c.ContainsSystemUpdates,
		"system_updates":          c.SystemUpdates,
	}
}
