package neushop

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a flat, schema-less row returned by the backend.
type Record map[string]any

// Listing is the decoded answer to a list request.
type Listing struct {
	Records    []Record
	IsArray    bool
	StatusCode int
}

// String renders a field for display or form prefill.
func (r Record) String(field string) string {
	return FormatValue(r[field])
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// FormatValue renders JSON-decoded values the way the console displays them.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Float64 extracts a numeric value from decoded JSON, returning false when the
// value is absent or not numeric.
func Float64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

func toListing(raw any, status int) Listing {
	items, ok := raw.([]any)
	if !ok {
		return Listing{Records: []Record{}, StatusCode: status}
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			records = append(records, Record(obj))
			continue
		}
		records = append(records, Record{})
	}
	return Listing{Records: records, IsArray: true, StatusCode: status}
}
