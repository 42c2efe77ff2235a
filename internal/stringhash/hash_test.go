package stringhash

import (
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32MatchesStandardIEEE(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	assert.Equal(t, crc32.ChecksumIEEE(data), CRC32(data))
}

func TestCRC32Empty(t *testing.T) {
	assert.Equal(t, crc32.ChecksumIEEE(nil), CRC32(nil))
}

func TestStableIDDeterministic(t *testing.T) {
	assert.Equal(t, StableID("hello"), StableID("hello"))
}

func TestStableIDDiffersAcrossInputs(t *testing.T) {
	assert.NotEqual(t, StableID("hello"), StableID("world"))
}
