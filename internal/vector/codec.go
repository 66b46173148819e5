package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode serializes a vector as little-endian float32 bytes for storage.
func Encode(v []float32) []byte {
	const size = 4
	out := make([]byte, len(v)*size)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(x))
	}
	return out
}

// Decode deserializes little-endian float32 bytes into a vector of the
// given dimension. Returns an error when the blob length does not match.
func Decode(b []byte, dimensions int) ([]float32, error) {
	const size = 4
	if len(b) != dimensions*size {
		return nil, fmt.Errorf("vector blob has %d bytes, expected %d", len(b), dimensions*size)
	}
	out := make([]float32, dimensions)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out, nil
}
