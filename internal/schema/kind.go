package schema

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// ValueKind is the Go-side category of a member's value type.
type ValueKind int

const (
	KindUnsupported ValueKind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindBytes
	KindTime
	KindUUID
)

var kindNames = map[ValueKind]string{
	KindUnsupported: "unsupported",
	KindBool:        "bool",
	KindInt:         "int",
	KindUint:        "uint",
	KindFloat:       "float",
	KindString:      "string",
	KindBytes:       "bytes",
	KindTime:        "time",
	KindUUID:        "uuid",
}

func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// ParseKind maps a kind name (as used in schema files) to a ValueKind.
// Storage-category aliases are accepted: integer, real, text, blob, datetime.
func ParseKind(name string) (ValueKind, bool) {
	switch name {
	case "bool", "boolean":
		return KindBool, true
	case "int", "integer", "bigint":
		return KindInt, true
	case "uint":
		return KindUint, true
	case "float", "real", "double":
		return KindFloat, true
	case "string", "text", "varchar":
		return KindString, true
	case "bytes", "blob":
		return KindBytes, true
	case "time", "datetime", "timestamp":
		return KindTime, true
	case "uuid":
		return KindUUID, true
	}
	return KindUnsupported, false
}

// ColumnType is the storage category of a column.
type ColumnType int

const (
	TypeInteger ColumnType = iota + 1
	TypeFloat
	TypeText
	TypeBlob
)

func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeText:
		return "text"
	case TypeBlob:
		return "blob"
	}
	return "unknown"
}

// ColumnType returns the storage category for values of this kind.
func (k ValueKind) ColumnType() ColumnType {
	switch k {
	case KindBool, KindInt, KindUint:
		return TypeInteger
	case KindFloat:
		return TypeFloat
	case KindString, KindTime, KindUUID:
		return TypeText
	case KindBytes:
		return TypeBlob
	}
	return 0
}

// kindOf classifies V. Pointer forms are reported as nullable.
func kindOf[V any]() (ValueKind, bool) {
	var zero V
	switch any(zero).(type) {
	case bool:
		return KindBool, false
	case int, int8, int16, int32, int64:
		return KindInt, false
	case uint, uint8, uint16, uint32, uint64:
		return KindUint, false
	case float32, float64:
		return KindFloat, false
	case string:
		return KindString, false
	case []byte:
		return KindBytes, true
	case time.Time:
		return KindTime, false
	case uuid.UUID:
		return KindUUID, false
	case *bool:
		return KindBool, true
	case *int, *int32, *int64:
		return KindInt, true
	case *float64:
		return KindFloat, true
	case *string:
		return KindString, true
	case *time.Time:
		return KindTime, true
	case *uuid.UUID:
		return KindUUID, true
	}
	return KindUnsupported, false
}

// assign converts v to V and stores it in dst. A nil v stores the zero value,
// which is a nil pointer for nullable members.
func assign[V any](dst *V, v any) error {
	if v == nil {
		var zero V
		*dst = zero
		return nil
	}
	if tv, ok := v.(V); ok {
		*dst = tv
		return nil
	}

	var err error
	switch d := any(dst).(type) {
	case *bool:
		*d, err = cast.ToBoolE(v)
	case *int:
		*d, err = cast.ToIntE(v)
	case *int8:
		*d, err = cast.ToInt8E(v)
	case *int16:
		*d, err = cast.ToInt16E(v)
	case *int32:
		*d, err = cast.ToInt32E(v)
	case *int64:
		*d, err = cast.ToInt64E(v)
	case *uint:
		*d, err = cast.ToUintE(v)
	case *uint8:
		*d, err = cast.ToUint8E(v)
	case *uint16:
		*d, err = cast.ToUint16E(v)
	case *uint32:
		*d, err = cast.ToUint32E(v)
	case *uint64:
		*d, err = cast.ToUint64E(v)
	case *float32:
		*d, err = cast.ToFloat32E(v)
	case *float64:
		*d, err = cast.ToFloat64E(v)
	case *string:
		*d, err = cast.ToStringE(v)
	case *[]byte:
		*d, err = toBytes(v)
	case *time.Time:
		*d, err = cast.ToTimeE(v)
	case *uuid.UUID:
		*d, err = toUUID(v)
	case **bool:
		err = assignPtr(d, cast.ToBoolE, v)
	case **int:
		err = assignPtr(d, cast.ToIntE, v)
	case **int32:
		err = assignPtr(d, cast.ToInt32E, v)
	case **int64:
		err = assignPtr(d, cast.ToInt64E, v)
	case **float64:
		err = assignPtr(d, cast.ToFloat64E, v)
	case **string:
		err = assignPtr(d, cast.ToStringE, v)
	case **time.Time:
		err = assignPtr(d, cast.ToTimeE, v)
	case **uuid.UUID:
		err = assignPtr(d, toUUID, v)
	default:
		return fmt.Errorf("cannot assign %T to %T", v, *dst)
	}
	if err != nil {
		return fmt.Errorf("cannot assign %T to %T: %w", v, *dst, err)
	}
	return nil
}

func assignPtr[E any](dst **E, conv func(any) (E, error), v any) error {
	x, err := conv(v)
	if err != nil {
		return err
	}
	*dst = &x
	return nil
}

// CoerceKind converts v to the canonical Go type of kind: bool, int64,
// uint64, float64, string, []byte, time.Time or uuid.UUID. nil passes through.
func CoerceKind(kind ValueKind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case KindBool:
		return cast.ToBoolE(v)
	case KindInt:
		return cast.ToInt64E(v)
	case KindUint:
		return cast.ToUint64E(v)
	case KindFloat:
		return cast.ToFloat64E(v)
	case KindString:
		return cast.ToStringE(v)
	case KindBytes:
		return toBytes(v)
	case KindTime:
		return cast.ToTimeE(v)
	case KindUUID:
		return toUUID(v)
	}
	return nil, fmt.Errorf("cannot coerce %T to %s", v, kind)
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case string:
		return []byte(b), nil
	}
	return nil, fmt.Errorf("unable to cast %#v of type %T to []byte", v, v)
}

func toUUID(v any) (uuid.UUID, error) {
	switch u := v.(type) {
	case uuid.UUID:
		return u, nil
	case string:
		return uuid.Parse(u)
	case []byte:
		if len(u) == 16 {
			return uuid.FromBytes(u)
		}
		return uuid.ParseBytes(u)
	}
	return uuid.Nil, fmt.Errorf("unable to cast %#v of type %T to uuid.UUID", v, v)
}
