// Package encoding converts embedding vectors and metadata between their Go
// representations and the forms MariaDB stores: VECTOR columns hold packed
// little-endian float32 values, metadata lives in JSON columns.
package encoding

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidVector is returned when a vector is nil, empty, non-finite or
// the binary form has a malformed length.
var ErrInvalidVector = errors.New("invalid vector")

// EncodeVector packs a float32 vector into the MariaDB VECTOR wire format:
// consecutive little-endian float32 values with no header.
func EncodeVector(vector []float32) ([]byte, error) {
	if err := ValidateVector(vector); err != nil {
		return nil, err
	}
	buf := make([]byte, 4*len(vector))
	for i, val := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(val))
	}
	return buf, nil
}

// DecodeVector unpacks a MariaDB VECTOR value back into a float32 slice.
func DecodeVector(data []byte) ([]float32, error) {
	if data == nil {
		return nil, ErrInvalidVector
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of float32s", ErrInvalidVector, len(data))
	}
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vector, nil
}

// ValidateVector rejects nil, empty and non-finite vectors before they reach
// the database.
func ValidateVector(vector []float32) error {
	if len(vector) == 0 {
		return ErrInvalidVector
	}
	for i, val := range vector {
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrInvalidVector, i)
		}
	}
	return nil
}

// EncodeMetadata serializes a metadata map for a JSON column. A nil map
// encodes as an empty JSON object so JSON_VALUE lookups stay well-formed.
func EncodeMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return data, nil
}

// DecodeMetadata parses a JSON column value back into a metadata map.
func DecodeMetadata(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return metadata, nil
}
