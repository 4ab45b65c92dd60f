package cache

import "encoding/json"

const (
	// primitiveSize is the flat cost charged for nil, booleans, and numbers.
	primitiveSize = 8

	// entryOverhead approximates the bookkeeping cost of one entry: the map
	// slot, the list node, and the timestamps.
	entryOverhead = 128

	// opaqueSize is charged when a value cannot be serialized at all.
	opaqueSize = 64
)

// EstimateSize returns the approximate in-memory cost of value in bytes.
// The estimate is deterministic for a given value and is used only to
// enforce the memory ceiling; it makes no attempt to measure real heap
// usage. Strings and byte slices cost their length, primitives cost a flat
// constant, slices and string-keyed maps cost the recursive sum of their
// elements, and anything else costs its JSON-serialized length.
func EstimateSize(value any) int64 {
	switch v := value.(type) {
	case nil:
		return primitiveSize
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128:
		return primitiveSize
	case string:
		return int64(len(v))
	case []byte:
		return int64(len(v))
	case []any:
		var sum int64
		for _, elem := range v {
			sum += EstimateSize(elem)
		}
		return sum
	case map[string]any:
		var sum int64
		for k, elem := range v {
			sum += int64(len(k)) + EstimateSize(elem)
		}
		return sum
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return opaqueSize
		}
		return int64(len(data))
	}
}

// entrySize is the cost charged against the memory ceiling for one entry.
func entrySize(key string, value any) int64 {
	return int64(len(key)) + EstimateSize(value) + entryOverhead
}
