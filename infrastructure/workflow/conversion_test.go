package workflow

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeMeters_FixedFactors(t *testing.T) {
	for p := int64(0); p <= 500; p += 7 {
		assert.Equal(t, 7*p, ComputeMeters(p, true))
		assert.Equal(t, 6*p, ComputeMeters(p, false))
	}
	assert.Equal(t, int64(0), ComputeMeters(-3, true))
}

func TestComputeMetersText_EmptyStaysEmpty(t *testing.T) {
	assert.Equal(t, "", ComputeMetersText("", true))
	assert.Equal(t, "", ComputeMetersText("  ", false))
	assert.Equal(t, "", ComputeMetersText("abc", false))
	assert.Equal(t, "0", ComputeMetersText("0", true))
	assert.Equal(t, "70", ComputeMetersText("10", true))
	assert.Equal(t, "60", ComputeMetersText(" 10 ", false))
}

func TestClampPieces_PerKeystroke(t *testing.T) {
	const max = 120
	typed := ""
	var shown []string
	for _, r := range "1500" {
		typed = ClampPieces(typed+string(r), max)
		shown = append(shown, typed)
	}
	assert.Equal(t, []string{"1", "15", "120", "120"}, shown)

	assert.Equal(t, "", ClampPieces("", max))
	assert.Equal(t, "", ClampPieces("x", max))
	assert.Equal(t, "12", ClampPieces("1a2", max))
	assert.Equal(t, "999", ClampPieces("999", 0))
	assert.Equal(t, strconv.Itoa(max), ClampPieces("99999999999999999999999", max))
}

func TestNormalizeBlouseType(t *testing.T) {
	v, ok := NormalizeBlouseType(" With ")
	assert.True(t, ok)
	assert.Equal(t, BlouseWith, v)

	v, ok = NormalizeBlouseType("")
	assert.True(t, ok)
	assert.Equal(t, BlouseWithout, v)

	_, ok = NormalizeBlouseType("half")
	assert.False(t, ok)

	assert.True(t, WithBlouse("WITH"))
	assert.False(t, WithBlouse("without"))
}
