package sqlstore

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"historicalmap/internal/model"
)

// EncodeContour packs a contour as little-endian float32 (latitude, longitude) pairs.
func EncodeContour(contour []model.Coordinate) []byte {
	buf := make([]byte, 0, len(contour)*8)
	for _, c := range contour {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c.Latitude))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c.Longitude))
	}
	return buf
}

// DecodeContour is the inverse of EncodeContour.
func DecodeContour(blob []byte) ([]model.Coordinate, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("contour blob has %d bytes, want a multiple of 8", len(blob))
	}
	out := make([]model.Coordinate, 0, len(blob)/8)
	for i := 0; i < len(blob); i += 8 {
		out = append(out, model.Coordinate{
			Latitude:  math.Float32frombits(binary.LittleEndian.Uint32(blob[i:])),
			Longitude: math.Float32frombits(binary.LittleEndian.Uint32(blob[i+4:])),
		})
	}
	return out, nil
}

// ContentHash maps a blob to the signed key stored in the hash columns.
func ContentHash(b []byte) int64 {
	return int64(xxhash.Sum64(b))
}

// TextHash is ContentHash for note text.
func TextHash(s string) int64 {
	return int64(xxhash.Sum64String(s))
}
