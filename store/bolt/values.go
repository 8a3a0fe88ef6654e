package bolt

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Flatten converts driver-native values into plain values: a node or relationship becomes its
// property map, a path the list of its nodes and relationships, and temporal and spatial values
// strings and maps.  Lists and maps are converted element-wise.
func Flatten(v any) any {
	switch x := v.(type) {
	case neo4j.Node:
		return flattenProps(x.Props)
	case neo4j.Relationship:
		return flattenProps(x.Props)
	case neo4j.Path:
		out := make([]any, 0, len(x.Nodes)+len(x.Relationships))
		for i, ni := range x.Nodes {
			out = append(out, flattenProps(ni.Props))
			if i < len(x.Relationships) {
				out = append(out, flattenProps(x.Relationships[i].Props))
			}
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, xi := range x {
			out[i] = Flatten(xi)
		}
		return out
	case map[string]any:
		return flattenProps(x)
	case neo4j.Date:
		return time.Time(x).Format(time.DateOnly)
	case neo4j.LocalTime:
		return time.Time(x).Format("15:04:05.999999999")
	case neo4j.Time:
		return time.Time(x).Format("15:04:05.999999999Z07:00")
	case neo4j.LocalDateTime:
		return time.Time(x).Format("2006-01-02T15:04:05.999999999")
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case neo4j.Duration:
		return x.String()
	case neo4j.Point2D:
		return map[string]any{"x": x.X, "y": x.Y, "srid": x.SpatialRefId}
	case neo4j.Point3D:
		return map[string]any{"x": x.X, "y": x.Y, "z": x.Z, "srid": x.SpatialRefId}
	default:
		return v
	}
}

func flattenProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = Flatten(v)
	}
	return out
}
