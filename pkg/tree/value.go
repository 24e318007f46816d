package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DataInfo describes an array-like value without its contents.
// It is the placeholder stored wherever the no-bulk-data rule applies:
// only shape, element type, and storage metadata are kept.
type DataInfo struct {
	Shape       []int64 `json:"shape"`
	ElementType string  `json:"element_type"`

	// Optional storage details reported by the loader.
	Chunks           []int64 `json:"chunks,omitempty"`
	Compression      string  `json:"compression,omitempty"`
	UncompressedSize int64   `json:"uncompressed_size_bytes,omitempty"`
	CompressedSize   int64   `json:"compressed_size_bytes,omitempty"`
}

// Value is a single attribute or field value stored in a Node.
// Exactly one of the variants is set:
//
//   - a scalar (string, bool, int64, float64, or nil)
//   - a Data placeholder for array-like values
//   - an Unresolved placeholder carrying a failure reason
//   - a Ref to a child node's path
//
// Values are encoded as the raw scalar, or as a tagged JSON object
// {"kind": "data"|"unresolved"|"ref", ...} for the placeholder variants.
type Value struct {
	Scalar     any
	Data       *DataInfo
	Unresolved string
	Ref        string
}

// ScalarValue wraps a plain scalar.
func ScalarValue(v any) Value { return Value{Scalar: v} }

// DataValue wraps an array descriptor placeholder.
func DataValue(info DataInfo) Value { return Value{Data: &info} }

// UnresolvedValue wraps a resolution failure placeholder.
func UnresolvedValue(reason string) Value { return Value{Unresolved: reason} }

// RefValue wraps a reference to a child node path.
func RefValue(path string) Value { return Value{Ref: path} }

// IsPlaceholder reports whether the value is a data or unresolved placeholder.
func (v Value) IsPlaceholder() bool { return v.Data != nil || v.Unresolved != "" }

// String renders a short human-readable form for display surfaces.
func (v Value) String() string {
	switch {
	case v.Data != nil:
		return fmt.Sprintf("array%v %s", v.Data.Shape, v.Data.ElementType)
	case v.Unresolved != "":
		return fmt.Sprintf("<unresolved: %s>", v.Unresolved)
	case v.Ref != "":
		return "→ " + v.Ref
	case v.Scalar == nil:
		return "null"
	default:
		return fmt.Sprintf("%v", v.Scalar)
	}
}

type taggedValue struct {
	Kind string `json:"kind"`

	// data
	Shape            []int64 `json:"shape,omitempty"`
	ElementType      string  `json:"element_type,omitempty"`
	Chunks           []int64 `json:"chunks,omitempty"`
	Compression      string  `json:"compression,omitempty"`
	UncompressedSize int64   `json:"uncompressed_size_bytes,omitempty"`
	CompressedSize   int64   `json:"compressed_size_bytes,omitempty"`

	// unresolved
	Reason string `json:"reason,omitempty"`

	// ref
	Path string `json:"path,omitempty"`
}

// MarshalJSON encodes scalars inline and placeholders as tagged objects.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.Data != nil:
		d := v.Data
		return json.Marshal(taggedValue{
			Kind:             "data",
			Shape:            d.Shape,
			ElementType:      d.ElementType,
			Chunks:           d.Chunks,
			Compression:      d.Compression,
			UncompressedSize: d.UncompressedSize,
			CompressedSize:   d.CompressedSize,
		})
	case v.Unresolved != "":
		return json.Marshal(taggedValue{Kind: "unresolved", Reason: v.Unresolved})
	case v.Ref != "":
		return json.Marshal(taggedValue{Kind: "ref", Path: v.Ref})
	default:
		return json.Marshal(v.Scalar)
	}
}

// UnmarshalJSON decodes the inline-scalar-or-tagged-object encoding.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return fmt.Errorf("empty value")
	}
	if trimmed[0] != '{' {
		var scalar any
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&scalar); err != nil {
			return err
		}
		*v = Value{Scalar: normalizeScalar(scalar)}
		return nil
	}

	var tagged taggedValue
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	switch tagged.Kind {
	case "data":
		shape := tagged.Shape
		if shape == nil {
			shape = []int64{}
		}
		*v = Value{Data: &DataInfo{
			Shape:            shape,
			ElementType:      tagged.ElementType,
			Chunks:           tagged.Chunks,
			Compression:      tagged.Compression,
			UncompressedSize: tagged.UncompressedSize,
			CompressedSize:   tagged.CompressedSize,
		}}
	case "unresolved":
		*v = Value{Unresolved: tagged.Reason}
	case "ref":
		*v = Value{Ref: tagged.Path}
	default:
		return fmt.Errorf("unknown value kind %q", tagged.Kind)
	}
	return nil
}

// normalizeScalar maps decoded JSON numbers to int64 where exact, else float64.
// This keeps integer attributes (sizes, counts) stable across round trips.
func normalizeScalar(v any) any {
	num, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := num.Int64(); err == nil {
		return i
	}
	f, _ := num.Float64()
	return f
}
