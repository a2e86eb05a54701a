// Package message writes and reads flat protobuf wire-format records without
// generated code. Integers are zigzag varints, floats are fixed64 doubles and
// nested records are length-delimited.
package message

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrWireType is returned when a field does not carry the expected wire type.
var ErrWireType = errors.New("message: unexpected wire type")

type Encoder struct {
	buf []byte
}

func (e *Encoder) Int(num protowire.Number, v int64) {
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, protowire.EncodeZigZag(v))
}

func (e *Encoder) Double(num protowire.Number, v float64) {
	e.buf = protowire.AppendTag(e.buf, num, protowire.Fixed64Type)
	e.buf = protowire.AppendFixed64(e.buf, math.Float64bits(v))
}

// Message appends a nested record built by fn.
func (e *Encoder) Message(num protowire.Number, fn func(*Encoder)) {
	var sub Encoder
	fn(&sub)
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, sub.buf)
}

func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Field is one decoded wire field.
type Field struct {
	Num  protowire.Number
	Type protowire.Type
	raw  uint64
	data []byte
}

func (f Field) Int() (int64, error) {
	if f.Type != protowire.VarintType {
		return 0, fmt.Errorf("%w: field %d", ErrWireType, f.Num)
	}
	return protowire.DecodeZigZag(f.raw), nil
}

func (f Field) Double() (float64, error) {
	if f.Type != protowire.Fixed64Type {
		return 0, fmt.Errorf("%w: field %d", ErrWireType, f.Num)
	}
	return math.Float64frombits(f.raw), nil
}

// Message returns the payload of a length-delimited field.
func (f Field) Message() ([]byte, error) {
	if f.Type != protowire.BytesType {
		return nil, fmt.Errorf("%w: field %d", ErrWireType, f.Num)
	}
	return f.data, nil
}

// Decode walks every field of data in order. Unknown wire types are skipped.
func Decode(data []byte, fn func(Field) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			f.raw, n = protowire.ConsumeVarint(data)
		case protowire.Fixed64Type:
			f.raw, n = protowire.ConsumeFixed64(data)
		case protowire.BytesType:
			f.data, n = protowire.ConsumeBytes(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
