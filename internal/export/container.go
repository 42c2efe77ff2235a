package export

import (
	"bytes"
	"encoding/binary"

	"gddb/internal/stringhash"
)

const (
	// containerMagic is chosen so the four on-disk bytes read forward as
	// 'G','D','D','B' once written little-endian.
	containerMagic   uint32 = 0x42444447
	containerVersion uint32 = 2
	headerSize       int    = 24
	directoryEntrySize int  = 24
	alignment        int    = 16
)

// ContainerSection is one named section ready to be packed into the
// container: a table's records, its slot array, or an auxiliary index.
type ContainerSection struct {
	Name        string
	RecordWidth int
	Records     []byte
	SlotArray   []int32
}

// BuildContainer assembles the full binary container: header,
// directory, name pool, per-table record+slot-array bytes (16-byte
// aligned), then the string registry, followed by a final pass rewriting
// the directory and header with the real offsets and the CRC32.
func BuildContainer(sections []ContainerSection, reg *StringRegistry) []byte {
	var buf bytes.Buffer

	// 1. Header (placeholder values, rewritten at the end).
	header := make([]byte, headerSize)
	buf.Write(header)

	// 2. Directory (placeholder values, rewritten at the end).
	dirStart := buf.Len()
	directory := make([]byte, directoryEntrySize*len(sections))
	buf.Write(directory)

	// 3. Name pool.
	namePoolStart := buf.Len()
	nameOffsets := make([]uint32, len(sections))
	for i, s := range sections {
		nameOffsets[i] = uint32(buf.Len() - namePoolStart)
		buf.WriteString(s.Name)
		buf.WriteByte(0)
	}

	padTo(&buf, alignment)

	// 5. Per-table record + slot-array bytes.
	recordOffsets := make([]uint32, len(sections))
	slotArrayOffsets := make([]uint32, len(sections))
	slotArrayLengths := make([]uint32, len(sections))
	for i, s := range sections {
		padTo(&buf, alignment)
		recordOffsets[i] = uint32(buf.Len())
		buf.Write(s.Records)

		padTo(&buf, alignment)
		slotArrayOffsets[i] = uint32(buf.Len())
		slotArrayLengths[i] = uint32(len(s.SlotArray))
		for _, v := range s.SlotArray {
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], uint32(v))
			buf.Write(tmp[:])
		}
	}

	// 6. String registry.
	padTo(&buf, alignment)
	stringRegistryOffset := uint32(buf.Len())
	stringRegistryCount := uint32(0)
	if reg != nil {
		stringRegistryCount = uint32(len(reg.Entries))
		for _, e := range reg.Entries {
			var tmp [6]byte
			binary.LittleEndian.PutUint32(tmp[0:4], e.ID)
			binary.LittleEndian.PutUint16(tmp[4:6], uint16(len(e.Value)))
			buf.Write(tmp[:])
			buf.WriteString(e.Value)
		}
	}

	out := buf.Bytes()

	// 7. Rewrite directory.
	for i, s := range sections {
		entry := out[dirStart+i*directoryEntrySize : dirStart+(i+1)*directoryEntrySize]
		binary.LittleEndian.PutUint32(entry[0:4], nameOffsets[i])
		binary.LittleEndian.PutUint32(entry[4:8], recordOffsets[i])
		binary.LittleEndian.PutUint32(entry[8:12], uint32(len(s.Records)/recordWidthOrOne(s)))
		binary.LittleEndian.PutUint32(entry[12:16], uint32(recordWidthOrOne(s)))
		binary.LittleEndian.PutUint32(entry[16:20], slotArrayOffsets[i])
		binary.LittleEndian.PutUint32(entry[20:24], slotArrayLengths[i])
	}

	// 8. Compute CRC32 over everything after the header, then rewrite header.
	checksum := stringhash.CRC32(out[headerSize:])
	binary.LittleEndian.PutUint32(out[0:4], containerMagic)
	binary.LittleEndian.PutUint32(out[4:8], containerVersion)
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(sections)))
	binary.LittleEndian.PutUint32(out[12:16], checksum)
	binary.LittleEndian.PutUint32(out[16:20], stringRegistryOffset)
	binary.LittleEndian.PutUint32(out[20:24], stringRegistryCount)

	return out
}

func padTo(buf *bytes.Buffer, align int) {
	rem := buf.Len() % align
	if rem == 0 {
		return
	}
	buf.Write(make([]byte, align-rem))
}

func recordWidthOrOne(s ContainerSection) int {
	if s.RecordWidth > 0 {
		return s.RecordWidth
	}
	return 1
}
