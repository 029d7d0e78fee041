package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ResultValue is the normalized form of a record's test_results field.  It
// is one of Scalar, LabeledValue, Nested or Raw.
type ResultValue interface {
	resultValue()
}

// Scalar is a single printable value: a string, number, boolean, null, or a
// list rendered as comma separated text.
type Scalar struct {
	Text string
}

// LabeledValue is a measurement such as {"value": 13.5, "unit": "g/dL"}.
// HasUnit and HasStatus record whether the key was present; a present null
// is kept as the text "null".
type LabeledValue struct {
	Value     string
	Unit      string
	Status    string
	HasUnit   bool
	HasStatus bool
}

// Nested is an object.  Fields are sorted by key so that the same data
// renders identically whatever container it arrived in.
type Nested struct {
	Fields []Field
}

// Field is one key of a Nested value.
type Field struct {
	Key   string
	Value ResultValue
}

// Raw is text that could not be decoded.
type Raw struct {
	Text string
}

func (Scalar) resultValue()       {}
func (LabeledValue) resultValue() {}
func (Nested) resultValue()       {}
func (Raw) resultValue()          {}

// Lookup returns the field stored under key.
func (n Nested) Lookup(key string) (ResultValue, bool) {
	for _, f := range n.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// maxDecodeDepth bounds how many times a JSON string holding another JSON
// string is unwrapped.
const maxDecodeDepth = 3

// NormalizeResults turns an untrusted test_results value into a ResultValue.
// Strings are decoded as JSON; a string that is not JSON becomes Raw.  It
// never fails and returns nil when v is nil or blank text.
func NormalizeResults(v any) ResultValue {
	if v == nil {
		return nil
	}
	for depth := 0; depth < maxDecodeDepth; depth++ {
		s, ok := v.(string)
		if !ok {
			break
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			if depth == 0 {
				return Raw{Text: s}
			}
			return Scalar{Text: s}
		}
		v = decoded
	}
	return normalize(v)
}

func normalize(v any) ResultValue {
	switch t := v.(type) {
	case map[string]any:
		if lv, ok := labeled(t); ok {
			return lv
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, Field{Key: k, Value: normalize(t[k])})
		}
		return Nested{Fields: fields}
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, inlineText(item))
		}
		return Scalar{Text: strings.Join(parts, ", ")}
	case nil, string, bool, float64, float32, int, int32, int64, json.Number:
		return Scalar{Text: scalarText(t)}
	default:
		// Other Go types (typed maps, structs, slices) go through JSON so
		// that they normalize like their decoded equivalents.
		raw, err := json.Marshal(t)
		if err != nil {
			return Raw{Text: fmt.Sprintf("%v", t)}
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return Raw{Text: string(raw)}
		}
		return normalize(decoded)
	}
}

// labeled recognizes objects whose keys are a subset of value/unit/status
// and which carry a scalar value.
func labeled(m map[string]any) (LabeledValue, bool) {
	value, ok := m["value"]
	if !ok || !isScalar(value) {
		return LabeledValue{}, false
	}
	for k, v := range m {
		switch k {
		case "value":
		case "unit", "status":
			if !isScalar(v) {
				return LabeledValue{}, false
			}
		default:
			return LabeledValue{}, false
		}
	}
	lv := LabeledValue{Value: scalarText(value)}
	if u, ok := m["unit"]; ok {
		lv.Unit, lv.HasUnit = scalarText(u), true
	}
	if s, ok := m["status"]; ok {
		lv.Status, lv.HasStatus = scalarText(s), true
	}
	return lv, true
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, float64, float32, int, int32, int64, json.Number:
		return true
	}
	return false
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	}
	return fmt.Sprintf("%v", v)
}

// inlineText renders a list element on one line.
func inlineText(v any) string {
	if isScalar(v) {
		return scalarText(v)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
