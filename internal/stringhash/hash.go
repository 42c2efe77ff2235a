// Package stringhash provides the two pure, stateless hash functions the
// export pipeline depends on: the container checksum (CRC32) and the
// stable string-registry id (StableID).
package stringhash

import (
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
)

// crcTable is built from the reflected IEEE-802.3 polynomial 0xEDB88320,
// which is what the CRC32 built into the standard library's crc32.IEEE
// table already uses — no third-party CRC implementation is needed to
// match the container format's polynomial, initial value, and final XOR exactly.
var crcTable = crc32.MakeTable(crc32.IEEE)

// CRC32 computes the container checksum: polynomial 0xEDB88320, initial
// 0xFFFFFFFF, final XOR 0xFFFFFFFF. This is exactly crc32.ChecksumIEEE.
func CRC32(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// StableID computes a deterministic 32-bit id for a UTF-8 string. It is
// built from xxhash's 64-bit digest folded into 32 bits (high xor low),
// the same stable, non-cryptographic content hash the rest of the
// retrieval pack reaches for when it needs a dense, deterministic key
// derived from arbitrary byte content.
//
// StableID never changes across runs or platforms for the same input —
// two distinct strings computing the same id is a fatal
// export/strings/id-collision diagnostic, never silently resolved here.
func StableID(s string) uint32 {
	h := xxhash.Sum64String(s)
	return uint32(h>>32) ^ uint32(h)
}
