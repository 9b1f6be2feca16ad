package security_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"helpdesk/internal/security"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	digest, err := hasher.Hash(ctx, "P@ssw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, "P@ssw0rd!", digest)

	ok, err := hasher.Verify(ctx, "P@ssw0rd!", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify(ctx, "wrong", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_SaltedDigests(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost, 1)
	ctx := context.Background()

	first, err := hasher.Hash(ctx, "same")
	require.NoError(t, err)
	second, err := hasher.Hash(ctx, "same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptHasher_LongInputIsFullyBound(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost, 1)
	ctx := context.Background()

	// два значения различаются только после 72-го байта
	prefix := strings.Repeat("x", 200)
	digest, err := hasher.Hash(ctx, prefix+"-a")
	require.NoError(t, err)

	ok, err := hasher.Verify(ctx, prefix+"-b", digest)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = hasher.Verify(ctx, prefix+"-a", digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost, 1)

	ok, err := hasher.Verify(context.Background(), "anything", "not-a-bcrypt-hash")

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_CancelledContext(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hasher.Hash(ctx, "value")
	assert.ErrorIs(t, err, context.Canceled)
}
