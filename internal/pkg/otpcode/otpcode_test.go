package otpcode

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_SixDigits(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := Generate(6)
		require.NoError(t, err)
		assert.Regexp(t, re, code)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestGenerate_OtherLengths(t *testing.T) {
	for _, length := range []int{4, 8, 10} {
		code, err := Generate(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		assert.NotEqual(t, byte('0'), code[0])
	}
}

func TestGenerate_LengthOutOfRange(t *testing.T) {
	_, err := Generate(3)
	assert.ErrorContains(t, err, "out of range")

	_, err = Generate(11)
	assert.ErrorContains(t, err, "out of range")
}

func TestHash_Deterministic(t *testing.T) {
	a := Hash("123456")
	b := Hash("123456")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex-encoded SHA-256
	assert.NotEqual(t, a, Hash("123457"))
}

func TestMatch(t *testing.T) {
	digest := Hash("654321")
	assert.True(t, Match(digest, "654321"))
	assert.False(t, Match(digest, "654322"))
	assert.False(t, Match(digest, ""))
}
