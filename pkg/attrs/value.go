package attrs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// ValueType represents the type of an attribute element
type ValueType uint8

const (
	TypeString ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
)

// Value is a single scalar element of a finite attribute set.
// Elements compare by literal value equality: same type, same bytes.
type Value struct {
	Type ValueType
	Data []byte
}

// Helper functions to create typed values
func StringValue(s string) Value {
	return Value{Type: TypeString, Data: []byte(s)}
}

func IntValue(i int64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(i))
	return Value{Type: TypeInt, Data: data}
}

func FloatValue(f float64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, math.Float64bits(f))
	return Value{Type: TypeFloat, Data: data}
}

func BoolValue(b bool) Value {
	data := []byte{0}
	if b {
		data[0] = 1
	}
	return Value{Type: TypeBool, Data: data}
}

// Decode methods
func (v Value) AsString() (string, error) {
	if v.Type != TypeString {
		return "", fmt.Errorf("value is not a string")
	}
	return string(v.Data), nil
}

func (v Value) AsInt() (int64, error) {
	if v.Type != TypeInt {
		return 0, fmt.Errorf("value is not an int")
	}
	return int64(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsFloat() (float64, error) {
	if v.Type != TypeFloat {
		return 0, fmt.Errorf("value is not a float")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsBool() (bool, error) {
	if v.Type != TypeBool {
		return false, fmt.Errorf("value is not a bool")
	}
	return v.Data[0] == 1, nil
}

// Equal reports literal value equality.
func (v Value) Equal(other Value) bool {
	return v.Type == other.Type && bytes.Equal(v.Data, other.Data)
}

// String renders the value as a literal, for logs and error messages.
func (v Value) String() string {
	switch v.Type {
	case TypeString:
		return strconv.Quote(string(v.Data))
	case TypeInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10)
	case TypeFloat:
		f, _ := v.AsFloat()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case TypeBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	default:
		return fmt.Sprintf("<unknown type %d>", v.Type)
	}
}
