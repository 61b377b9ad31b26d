package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	digest, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", digest)

	assert.True(t, Verify(digest, "correct horse battery staple"))
	assert.False(t, Verify(digest, "wrong password"))
}

func TestVerify_GarbageDigest(t *testing.T) {
	assert.False(t, Verify("not-a-bcrypt-digest", "anything"))
}

func TestHash_TooLong(t *testing.T) {
	long := make([]byte, 80) // bcrypt caps input at 72 bytes
	for i := range long {
		long[i] = 'a'
	}
	_, err := Hash(string(long))
	assert.Error(t, err)
}
