package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// crsNames maps the spatial reference system ids Neo4j uses to their
// coordinate reference system names.
var crsNames = map[uint32]string{
	4326: "wgs-84",
	4979: "wgs-84-3d",
	7203: "cartesian",
	9157: "cartesian-3d",
}

// parseWKTPoint parses "SRID=<int>;POINT(x y [z])" into a driver point.
// Prefixes are matched case-insensitively.
func parseWKTPoint(s string) (any, error) {
	sridPart, pointPart, found := strings.Cut(s, ";")
	if !found {
		return nil, fmt.Errorf("expected SRID=<int>;POINT(x y [z])")
	}

	sridPart = strings.TrimSpace(sridPart)
	if !strings.HasPrefix(strings.ToUpper(sridPart), "SRID=") {
		return nil, fmt.Errorf("missing SRID prefix")
	}
	srid, err := strconv.ParseUint(sridPart[len("SRID="):], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid SRID: %w", err)
	}

	pointPart = strings.TrimSpace(pointPart)
	upper := strings.ToUpper(pointPart)
	if !strings.HasPrefix(upper, "POINT") {
		return nil, fmt.Errorf("missing POINT body")
	}
	body := strings.TrimSpace(pointPart[len("POINT"):])
	// Some producers write "POINT Z (x y z)" for 3D points.
	if strings.HasPrefix(strings.ToUpper(body), "Z") {
		body = strings.TrimSpace(body[1:])
	}
	if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
		return nil, fmt.Errorf("coordinates must be parenthesised")
	}

	fields := strings.Fields(body[1 : len(body)-1])
	coords := make([]float64, len(fields))
	for i, field := range fields {
		coords[i], err = strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: %w", field, err)
		}
	}

	switch len(coords) {
	case 2:
		return dbtype.Point2D{SpatialRefId: uint32(srid), X: coords[0], Y: coords[1]}, nil
	case 3:
		return dbtype.Point3D{SpatialRefId: uint32(srid), X: coords[0], Y: coords[1], Z: coords[2]}, nil
	default:
		return nil, fmt.Errorf("expected 2 or 3 coordinates, got %d", len(coords))
	}
}

// formatWKTPoint renders a driver point in the same literal form the
// parameter decoder accepts, making point values round-trip under the
// new-format view.
func formatWKTPoint(srid uint32, coords ...float64) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c, 'g', -1, 64)
	}
	return fmt.Sprintf("SRID=%d;POINT(%s)", srid, strings.Join(parts, " "))
}

// legacyPoint renders a point in the legacy view: coordinates plus a crs
// object. For the four SRIDs Neo4j ships, the crs carries its well-known
// name and a link to the spatial reference registry.
func legacyPoint(srid uint32, coords []float64) map[string]any {
	crs := map[string]any{"srid": int64(srid)}
	if name, known := crsNames[srid]; known {
		crs["name"] = name
		crs["type"] = "link"
		crs["properties"] = map[string]any{
			"href": fmt.Sprintf("http://spatialreference.org/ref/epsg/%d/ogcwkt/", srid),
			"type": "ogcwkt",
		}
	}
	return map[string]any{
		"coordinates": coords,
		"crs":         crs,
	}
}
