package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hashed, err := Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hashed)
	assert.True(t, Verify("s3cret-pass", hashed))
	assert.False(t, Verify("other", hashed))
	assert.False(t, Verify("s3cret-pass", ""))
	assert.False(t, Verify("s3cret-pass", "not-a-bcrypt-hash"))
}

func TestIsMismatch(t *testing.T) {
	assert.True(t, IsMismatch(bcrypt.ErrMismatchedHashAndPassword))
	assert.False(t, IsMismatch(nil))
}

func TestRandom(t *testing.T) {
	a, err := Random(32)
	require.NoError(t, err)
	b, err := Random(32)
	require.NoError(t, err)
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}
