package auth

import (
	"errors"
	"strings"
	"testing"

	"atrium/config"
	"atrium/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cheap parameters keep the suite fast; production uses DefaultArgon2Params.
var testArgon2Params = Argon2Params{
	Memory:      64,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy source unavailable")
}

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	hasher := NewArgon2HasherWithParams(testArgon2Params)

	// Each password holds a byte outside the base64 alphabet, so it can never
	// appear inside an encoded hash by coincidence.
	for _, password := range []string{"correct horse battery staple", "短いパスワード", " ", "p@"} {
		hash, err := hasher.Hash(password)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$"), hash)
		assert.NotContains(t, hash, password)
		assert.Len(t, strings.Split(hash, "$"), 6)

		ok, err := hasher.Verify(password, hash)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestArgon2Hasher_VerifyMismatch(t *testing.T) {
	hasher := NewArgon2HasherWithParams(testArgon2Params)

	hash, err := hasher.Hash("first-password")
	require.NoError(t, err)

	ok, err := hasher.Verify("second-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = hasher.Verify("", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2Hasher_FreshSaltPerCall(t *testing.T) {
	hasher := NewArgon2HasherWithParams(testArgon2Params)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	for _, h := range []string{first, second} {
		ok, err := hasher.Verify("same-password", h)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestArgon2Hasher_DefaultParameters(t *testing.T) {
	hasher := NewArgon2Hasher(nil)

	hash, err := hasher.Hash("default-cost")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$"), hash)

	ok, err := hasher.Verify("default-cost", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2Hasher_VerifyUsesEmbeddedParameters(t *testing.T) {
	weak := NewArgon2HasherWithParams(testArgon2Params)
	strong := NewArgon2HasherWithParams(Argon2Params{Memory: 128, Iterations: 2, Parallelism: 2, SaltLength: 16, KeyLength: 32})

	hash, err := weak.Hash("portable")
	require.NoError(t, err)

	ok, err := strong.Verify("portable", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2Hasher_EmptyPassword(t *testing.T) {
	hasher := NewArgon2HasherWithParams(testArgon2Params)

	_, err := hasher.Hash("")
	assert.ErrorIs(t, err, service.ErrEmptyPassword)
	assert.NotErrorIs(t, err, service.ErrInternal)
	assert.NotErrorIs(t, err, service.ErrAuthentication)
}

func TestArgon2Hasher_SaltFailure(t *testing.T) {
	hasher := &argon2Hasher{params: testArgon2Params, random: failingReader{}}

	_, err := hasher.Hash("password")
	assert.ErrorIs(t, err, service.ErrInternal)
}

func TestArgon2Hasher_VerifyMalformedHash(t *testing.T) {
	hasher := NewArgon2HasherWithParams(testArgon2Params)
	valid, err := hasher.Hash("password")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	tests := []struct {
		name string
		hash string
	}{
		{name: "empty", hash: ""},
		{name: "plain text", hash: "password"},
		{name: "bcrypt", hash: "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"},
		{name: "argon2i", hash: "$argon2i$" + strings.Join(parts[2:], "$")},
		{name: "wrong version", hash: "$argon2id$v=16$" + strings.Join(parts[3:], "$")},
		{name: "missing version", hash: "$argon2id$19$" + strings.Join(parts[3:], "$")},
		{name: "missing parameter", hash: "$argon2id$v=19$m=64,t=1$" + strings.Join(parts[4:], "$")},
		{name: "unknown parameter", hash: "$argon2id$v=19$m=64,t=1,x=1$" + strings.Join(parts[4:], "$")},
		{name: "zero iterations", hash: "$argon2id$v=19$m=64,t=0,p=1$" + strings.Join(parts[4:], "$")},
		{name: "huge memory", hash: "$argon2id$v=19$m=99999999,t=1,p=1$" + strings.Join(parts[4:], "$")},
		{name: "bad salt", hash: "$argon2id$v=19$m=64,t=1,p=1$!!!$" + parts[5]},
		{name: "empty key", hash: "$argon2id$v=19$m=64,t=1,p=1$" + parts[4] + "$"},
		{name: "extra segment", hash: valid + "$extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify("password", tt.hash)
			assert.False(t, ok)
			assert.ErrorIs(t, err, service.ErrInternal)
		})
	}
}

func TestArgon2Hasher_NeedsRehash(t *testing.T) {
	weak := NewArgon2HasherWithParams(testArgon2Params)
	strongParams := testArgon2Params
	strongParams.Iterations = 3
	strong := NewArgon2HasherWithParams(strongParams)

	weakHash, err := weak.Hash("password")
	require.NoError(t, err)
	strongHash, err := strong.Hash("password")
	require.NoError(t, err)

	needs, err := strong.NeedsRehash(weakHash)
	require.NoError(t, err)
	assert.True(t, needs)

	needs, err = strong.NeedsRehash(strongHash)
	require.NoError(t, err)
	assert.False(t, needs)

	_, err = strong.NeedsRehash("garbage")
	assert.ErrorIs(t, err, service.ErrInternal)
}

func TestArgon2ParamsFromConfig(t *testing.T) {
	params := Argon2ParamsFromConfig(config.Argon2Config{Memory: 4096, Parallelism: 4})

	assert.Equal(t, uint32(4096), params.Memory)
	assert.Equal(t, uint8(4), params.Parallelism)
	assert.Equal(t, DefaultArgon2Params().Iterations, params.Iterations)
	assert.Equal(t, DefaultArgon2Params().SaltLength, params.SaltLength)
	assert.Equal(t, DefaultArgon2Params().KeyLength, params.KeyLength)
}
