package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixed32RoundTrip(t *testing.T) {
	cases := []float64{0, 1, -1, 0.5, -0.5, 3.25, -3.25, 12345.0625}
	for _, v := range cases {
		raw := Fixed32FromDouble(v)
		assert.InDelta(t, v, Fixed32ToDouble(raw), 1.0/Fixed32Scale)
	}
}

func TestFixed64RoundTrip(t *testing.T) {
	cases := []float64{0, 1, -1, 0.5, -0.5, 1000000.125}
	for _, v := range cases {
		raw := Fixed64FromDouble(v)
		assert.InDelta(t, v, Fixed64ToDouble(raw), 1.0/Fixed64Scale)
	}
}

func TestFixed32RoundHalfAwayFromZero(t *testing.T) {
	// 0.5/65536 rounds away from zero in both directions.
	half := 0.5 / Fixed32Scale
	assert.Equal(t, int32(1), Fixed32FromDouble(half))
	assert.Equal(t, int32(-1), Fixed32FromDouble(-half))
}

func TestFixed32Scale(t *testing.T) {
	assert.Equal(t, int32(1<<16), Fixed32FromDouble(1))
}

func TestFixed64Scale(t *testing.T) {
	assert.Equal(t, int64(1<<32), Fixed64FromDouble(1))
}
