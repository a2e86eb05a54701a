package rw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ErrShortRead is returned once a read ran past the end of the buffer.
var ErrShortRead = errors.New("rw: unexpected end of data")

// ReaderWriter is a little-endian binary buffer. Reads never panic: the first
// failure is remembered, later reads return zero values and Err reports it.
type ReaderWriter struct {
	order   binary.ByteOrder
	dataBuf []byte
	rw      bytes.Buffer
	err     error
}

func NewBinWriter() *ReaderWriter {
	return &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
}

func NewBinReader(data []byte) *ReaderWriter {
	d := &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
	d.rw.Write(data)
	return d
}

// Err returns the first read error, if any.
func (w *ReaderWriter) Err() error {
	return w.err
}

// Fail records err as the read error unless an earlier one is already set.
// Callers use it when a decoded length cannot fit in the remaining data.
func (w *ReaderWriter) Fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *ReaderWriter) read(n int) []byte {
	if w.err != nil {
		return nil
	}
	if _, err := io.ReadFull(&w.rw, w.dataBuf[:n]); err != nil {
		w.err = ErrShortRead
		return nil
	}
	return w.dataBuf[:n]
}

func (w *ReaderWriter) ReadUInt8() uint8 {
	b := w.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (w *ReaderWriter) ReadUInt32() uint32 {
	b := w.read(4)
	if b == nil {
		return 0
	}
	return w.order.Uint32(b)
}

func (w *ReaderWriter) ReadInt32() int32 {
	return int32(w.ReadUInt32())
}

func (w *ReaderWriter) ReadInt32s(value []int32) {
	for i := range value {
		value[i] = w.ReadInt32()
	}
}

func (w *ReaderWriter) ReadUInt64() uint64 {
	b := w.read(8)
	if b == nil {
		return 0
	}
	return w.order.Uint64(b)
}

func (w *ReaderWriter) ReadFloat64() float64 {
	return math.Float64frombits(w.ReadUInt64())
}

func (w *ReaderWriter) ReadFloat64s(value []float64) {
	for i := range value {
		value[i] = w.ReadFloat64()
	}
}

// ReadBytes reads a uint32 length prefix followed by that many bytes.
func (w *ReaderWriter) ReadBytes() []byte {
	n := int(w.ReadUInt32())
	if w.err != nil {
		return nil
	}
	if n > w.rw.Len() {
		w.Fail(ErrShortRead)
		return nil
	}
	res := make([]byte, n)
	copy(res, w.rw.Next(n))
	return res
}

func (w *ReaderWriter) WriteUInt8(v uint8) {
	w.rw.WriteByte(v)
}

func (w *ReaderWriter) WriteUInt32(v uint32) {
	w.order.PutUint32(w.dataBuf, v)
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteInt32(v int32) {
	w.WriteUInt32(uint32(v))
}

func (w *ReaderWriter) WriteInt32s(value []int32) {
	for _, tmp := range value {
		w.WriteInt32(tmp)
	}
}

func (w *ReaderWriter) WriteUInt64(v uint64) {
	w.order.PutUint64(w.dataBuf, v)
	w.rw.Write(w.dataBuf[:8])
}

func (w *ReaderWriter) WriteFloat64(v float64) {
	w.WriteUInt64(math.Float64bits(v))
}

func (w *ReaderWriter) WriteFloat64s(value []float64) {
	for _, tmp := range value {
		w.WriteFloat64(tmp)
	}
}

// WriteBytes writes a uint32 length prefix followed by the data.
func (w *ReaderWriter) WriteBytes(data []byte) {
	w.WriteUInt32(uint32(len(data)))
	w.rw.Write(data)
}

func (w *ReaderWriter) WriteString(s string) {
	w.rw.WriteString(s)
}

func (w *ReaderWriter) GetWriteBytes() (res []byte) {
	res = w.rw.Bytes()
	return res
}

// Remaining returns the number of unread bytes.
func (w *ReaderWriter) Remaining() int {
	return w.rw.Len()
}

func (w *ReaderWriter) ChangeOrder(order binary.ByteOrder) {
	w.order = order
}
