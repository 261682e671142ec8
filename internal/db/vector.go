package db

import (
	"encoding/binary"
	"math"
)

// VectorToBytes encodes a float32 vector as little-endian bytes, the layout
// both store backends use for the vector hash field.
func VectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// VectorFromBytes decodes a little-endian float32 vector.
func VectorFromBytes(s string) []float32 {
	if len(s) < 4 {
		return nil
	}
	v := make([]float32, len(s)/4)
	for i := range v {
		bits := binary.LittleEndian.Uint32([]byte(s[i*4 : i*4+4]))
		v[i] = math.Float32frombits(bits)
	}
	return v
}
