package types

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// DataType is the declared type of a slot.
type DataType string

// Slot data types as written in knowledge files.
const (
	DataTypeInteger DataType = "INTEGER"
	DataTypeText    DataType = "TEXT"
	DataTypeBoolean DataType = "BOOLEAN"
	DataTypeFrame   DataType = "FRAME"
	DataTypeList    DataType = "LIST"
)

// validDataTypes is the set of recognized slot data types.
var validDataTypes = map[DataType]bool{
	DataTypeInteger: true,
	DataTypeText:    true,
	DataTypeBoolean: true,
	DataTypeFrame:   true,
	DataTypeList:    true,
}

// IsValidDataType reports whether the given string is a recognized data type.
func IsValidDataType(dt string) bool {
	return validDataTypes[DataType(dt)]
}

// Value is a slot value. Exactly one variant is populated, selected by Kind.
// The zero Value is unset.
type Value struct {
	kind  DataType
	num   float64
	text  string
	flag  bool
	frame *Frame
	list  []Value
}

// Number returns an INTEGER value. The INTEGER type covers every
// non-boolean number, fractions included.
func Number(n float64) Value { return Value{kind: DataTypeInteger, num: n} }

// Int returns an INTEGER value holding a whole number.
func Int(n int64) Value { return Value{kind: DataTypeInteger, num: float64(n)} }

// Text returns a TEXT value.
func Text(s string) Value { return Value{kind: DataTypeText, text: s} }

// Bool returns a BOOLEAN value.
func Bool(b bool) Value { return Value{kind: DataTypeBoolean, flag: b} }

// Ref returns a FRAME value pointing at f. A nil frame yields an unset value.
func Ref(f *Frame) Value {
	if f == nil {
		return Value{}
	}
	return Value{kind: DataTypeFrame, frame: f}
}

// List returns a LIST value. The elements are copied.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: DataTypeList, list: cp}
}

// Strings returns a LIST value of TEXT elements.
func Strings(items ...string) Value {
	vals := make([]Value, len(items))
	for i, s := range items {
		vals[i] = Text(s)
	}
	return Value{kind: DataTypeList, list: vals}
}

// Kind returns the variant held by v, or "" when v is unset.
func (v Value) Kind() DataType { return v.kind }

// IsSet reports whether v holds a value.
func (v Value) IsSet() bool { return v.kind != "" }

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == DataTypeInteger }

// AsText returns the text payload.
func (v Value) AsText() (string, bool) { return v.text, v.kind == DataTypeText }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.flag, v.kind == DataTypeBoolean }

// AsFrame returns the referenced frame.
func (v Value) AsFrame() (*Frame, bool) { return v.frame, v.kind == DataTypeFrame }

// AsList returns a copy of the list elements.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != DataTypeList {
		return nil, false
	}
	cp := make([]Value, len(v.list))
	copy(cp, v.list)
	return cp, true
}

// TextOr returns the text payload, or def when v is not TEXT.
func (v Value) TextOr(def string) string {
	if v.kind != DataTypeText {
		return def
	}
	return v.text
}

// Equal reports whether two values hold the same variant and payload.
// Frame references compare by identity.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case "":
		return true
	case DataTypeInteger:
		return v.num == o.num
	case DataTypeText:
		return v.text == o.text
	case DataTypeBoolean:
		return v.flag == o.flag
	case DataTypeFrame:
		return v.frame == o.frame
	case DataTypeList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts v back to a plain Go value: float64, string, bool,
// *Frame or []any. Unset values yield nil.
func (v Value) Interface() any {
	switch v.kind {
	case DataTypeInteger:
		return v.num
	case DataTypeText:
		return v.text
	case DataTypeBoolean:
		return v.flag
	case DataTypeFrame:
		return v.frame
	case DataTypeList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	}
	return nil
}

// String renders v for explanations and traces.
func (v Value) String() string {
	switch v.kind {
	case DataTypeInteger:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case DataTypeText:
		return v.text
	case DataTypeBoolean:
		return strconv.FormatBool(v.flag)
	case DataTypeFrame:
		return v.frame.Name()
	case DataTypeList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "<unset>"
}

// Classify converts an arbitrary Go value into a Value, choosing the data
// type from its shape: booleans are BOOLEAN, non-boolean numbers INTEGER,
// frames FRAME, slices and arrays LIST, and everything else TEXT.
// It is used only when an undeclared slot is synthesized.
func Classify(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case bool:
		return Bool(x)
	case *Frame:
		return Ref(x)
	case string:
		return Text(x)
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint:
		return Int(int64(x))
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint64:
		return Int(int64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case []Value:
		return List(x...)
	case []string:
		return Strings(x...)
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = Classify(rv.Index(i).Interface())
		}
		return Value{kind: DataTypeList, list: items}
	}
	return Text(fmt.Sprint(raw))
}
