package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeNested(t *testing.T) {
	var e Encoder
	e.Int(1, -7)
	e.Message(2, func(sub *Encoder) {
		sub.Double(1, 1.5)
		sub.Double(2, -0.25)
	})
	e.Int(3, 1<<40)

	var ints []int64
	var doubles []float64
	err := Decode(e.Bytes(), func(f Field) error {
		switch f.Num {
		case 1, 3:
			v, err := f.Int()
			ints = append(ints, v)
			return err
		case 2:
			payload, err := f.Message()
			if err != nil {
				return err
			}
			return Decode(payload, func(sf Field) error {
				v, err := sf.Double()
				doubles = append(doubles, v)
				return err
			})
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{-7, 1 << 40}, ints)
	assert.Equal(t, []float64{1.5, -0.25}, doubles)
}

func TestDecodeWrongType(t *testing.T) {
	var e Encoder
	e.Double(1, 2)
	err := Decode(e.Bytes(), func(f Field) error {
		_, err := f.Int()
		return err
	})
	assert.ErrorIs(t, err, ErrWireType)
}

func TestDecodeTruncated(t *testing.T) {
	var e Encoder
	e.Double(1, 2)
	data := e.Bytes()
	err := Decode(data[:len(data)-3], func(Field) error { return nil })
	assert.Error(t, err)
}
