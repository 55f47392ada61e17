// Package vector encodes embedding vectors as tagged SQLite blobs.
//
// A tagged blob is the vector's float32 elements in little-endian order
// followed by a single marker byte. The marker lets downstream consumers
// (such as a vector index) recognize embedding output without re-parsing,
// and distinguishes it from arbitrary binary data of coincidentally valid
// length.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TagFloat32 is the marker byte appended to every float32 vector blob.
const TagFloat32 = 223

// Encode serializes a vector into a tagged blob.
func Encode(vec []float32) []byte {
	blob := make([]byte, len(vec)*4+1)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(f))
	}
	blob[len(blob)-1] = TagFloat32
	return blob
}

// Decode deserializes a tagged blob back into a vector.
func Decode(blob []byte) ([]float32, error) {
	raw, err := Strip(blob)
	if err != nil {
		return nil, err
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, nil
}

// Strip validates the tag and returns the raw little-endian float32 bytes,
// the form sqlite-vec and similar consumers expect.
func Strip(blob []byte) ([]byte, error) {
	if !IsVector(blob) {
		return nil, fmt.Errorf("blob is not a tagged float32 vector")
	}
	return blob[:len(blob)-1], nil
}

// IsVector reports whether blob carries the float32 vector tag.
func IsVector(blob []byte) bool {
	return len(blob) >= 1 && (len(blob)-1)%4 == 0 && blob[len(blob)-1] == TagFloat32
}
