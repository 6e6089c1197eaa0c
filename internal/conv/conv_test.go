package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0), IntToUint32(0))
	assert.Equal(t, uint32(70000), IntToUint32(70000))
	assert.Panics(t, func() { IntToUint32(-1) })
	if math.MaxInt > math.MaxUint32 {
		assert.Panics(t, func() { IntToUint32(math.MaxInt) })
	}
}

func TestIntToUint64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(12), IntToUint64(12))
	assert.Panics(t, func() { IntToUint64(-5) })
}
