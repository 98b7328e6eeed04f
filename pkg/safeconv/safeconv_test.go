package safeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustUintToInt(t *testing.T) {
	t.Parallel()

	t.Run("normal_value", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, 42, MustUintToInt(42))
	})

	t.Run("max_int", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, MaxInt, MustUintToInt(uint(MaxInt)))
	})

	t.Run("overflow_panics", func(t *testing.T) {
		t.Parallel()

		assert.PanicsWithValue(t, "safeconv: uint to int overflow", func() {
			MustUintToInt(uint(MaxInt) + 1)
		})
	})
}

func TestMustIntToUint(t *testing.T) {
	t.Parallel()

	t.Run("zero", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint(0), MustIntToUint(0))
	})

	t.Run("negative_panics", func(t *testing.T) {
		t.Parallel()

		assert.PanicsWithValue(t, "safeconv: negative int to uint conversion", func() {
			MustIntToUint(-1)
		})
	})
}

func TestMustIntToUint32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  int
		want   uint32
		panics bool
	}{
		{name: "zero", input: 0, want: 0},
		{name: "max", input: int(MaxUint32), want: MaxUint32},
		{name: "negative", input: -1, panics: true},
		{name: "overflow", input: int(MaxUint32) + 1, panics: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.panics {
				assert.PanicsWithValue(t, "safeconv: int to uint32 out of bounds", func() {
					MustIntToUint32(tt.input)
				})

				return
			}

			assert.Equal(t, tt.want, MustIntToUint32(tt.input))
		})
	}
}

func TestSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0), Size(-5))
	assert.Equal(t, uint64(1024), Size(1024))
	assert.Equal(t, uint64(math.MaxInt64), Size(math.MaxInt64))
}
