package export

import "encoding/binary"

// packInt32Array little-endian-packs a flat i32 array, the wire shape
// shared by slot arrays, subtable parent_rows, and every *_rows section.
func packInt32Array(vals []int32) []byte {
	out := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
	}
	return out
}

// packKeyValuePairs little-endian-packs a sorted (key,rowIndex) array.
func packKeyValuePairs(pairs []KeyValuePair) []byte {
	out := make([]byte, len(pairs)*8)
	for i, p := range pairs {
		binary.LittleEndian.PutUint32(out[i*8:], uint32(p.Key))
		binary.LittleEndian.PutUint32(out[i*8+4:], uint32(p.RowIndex))
	}
	return out
}

// packRanges little-endian-packs a dense (start,count) array.
func packRanges(ranges []Range) []byte {
	out := make([]byte, len(ranges)*8)
	for i, r := range ranges {
		binary.LittleEndian.PutUint32(out[i*8:], uint32(r.Start))
		binary.LittleEndian.PutUint32(out[i*8+4:], uint32(r.Count))
	}
	return out
}

// packRowTargets little-endian-packs a (tag,targetPk) array.
func packRowTargets(vals []RowTarget) []byte {
	out := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*8:], uint32(v.Tag))
		binary.LittleEndian.PutUint32(out[i*8+4:], uint32(v.TargetPK))
	}
	return out
}

// packTargetMeta little-endian-packs a (rangeOffset,mapLength) array.
func packTargetMeta(vals []TargetMeta) []byte {
	out := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*8:], uint32(v.RangeOffset))
		binary.LittleEndian.PutUint32(out[i*8+4:], uint32(v.MapLength))
	}
	return out
}
