package querysql

import (
	"time"

	"github.com/google/uuid"

	"github.com/realjackcrew/leornian-query/internal/intent"
	"github.com/realjackcrew/leornian-query/internal/registry"
)

// Record is one reshaped row: identity columns plus a key per selected field
// and a nested object per selected category.
type Record map[string]any

// Identity columns passed through to every shaped record, under the aliases
// the row-retrieval SELECT assigns them.
var identityColumns = []string{"id", "date", "userId", "createdAt", "updatedAt"}

// ShapeRows reshapes raw row-retrieval results into nested, field-named
// records mirroring the original selection.
//
// Each selected field's value is re-extracted from the JSON payload by
// walking its path, not read from the SQL alias. The redundancy is
// deliberate: shaping stays robust even if the SQL-level extraction behaved
// unexpectedly for a null or missing key, so do not collapse the two
// mechanisms into one.
func ShapeRows(q *intent.QueryIntent, reg *registry.Registry, rows []map[string]any) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{}
		for _, col := range identityColumns {
			if v, ok := row[col]; ok {
				rec[col] = convertValue(v)
			}
		}

		payload, _ := row[registry.PayloadColumn].(map[string]any)
		for _, f := range q.SelectedFields {
			rec[f] = walkPath(payload, q.FieldPaths[f])
		}
		for _, c := range q.SelectedCategories {
			members := reg.FieldsOf(c)
			nested := make(map[string]any, len(members))
			for _, member := range members {
				nested[member] = walkPath(payload, q.FieldPaths[member])
			}
			rec[c] = nested
		}
		out = append(out, rec)
	}
	return out
}

// ShapeAggregations converts aggregation rows cell-by-cell. Aggregate rows
// carry no JSON payload, so there is nothing to re-extract - only value
// conversion applies.
func ShapeAggregations(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		conv := make(map[string]any, len(row))
		for k, v := range row {
			conv[k] = convertValue(v)
		}
		out = append(out, conv)
	}
	return out
}

// walkPath follows a path expression's quoted keys through the payload.
// Missing keys yield nil rather than an error so category expansion always
// produces the full member-key set.
func walkPath(payload map[string]any, path string) any {
	if payload == nil || path == "" {
		return nil
	}
	keys := pathKeyRe.FindAllStringSubmatch(path, -1)
	if len(keys) == 0 {
		return nil
	}
	var cur any = payload
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k[1]]
	}
	return cur
}

// convertValue normalizes driver types into JSON-friendly values: dates to
// ISO strings, timestamps to RFC 3339, UUID bytes to their text form, byte
// slices to strings. int64 passes through - Go carries 64-bit row ids
// without loss, unlike the JSON numbers upstream consumers see.
func convertValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(intent.DateLayout)
		}
		return val.Format(time.RFC3339)
	case [16]byte:
		return uuid.UUID(val).String()
	case []byte:
		return string(val)
	default:
		return v
	}
}
