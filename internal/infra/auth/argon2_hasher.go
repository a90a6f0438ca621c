// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"atrium/config"
	"atrium/internal/domain/service"
	"atrium/internal/errors"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

// Argon2Params are the argon2id cost parameters. Memory is in KiB.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns m=19456 KiB, t=2, p=1 with a 16-byte salt and 32-byte key.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      19 * 1024,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2ParamsFromConfig overlays non-zero configured values on the defaults.
func Argon2ParamsFromConfig(cfg config.Argon2Config) Argon2Params {
	p := DefaultArgon2Params()
	if cfg.Memory != 0 {
		p.Memory = cfg.Memory
	}
	if cfg.Iterations != 0 {
		p.Iterations = cfg.Iterations
	}
	if cfg.Parallelism != 0 {
		p.Parallelism = cfg.Parallelism
	}
	if cfg.SaltLength != 0 {
		p.SaltLength = cfg.SaltLength
	}
	if cfg.KeyLength != 0 {
		p.KeyLength = cfg.KeyLength
	}

	return p
}

// argon2Hasher is a concrete implementation of the PasswordHasher interface using argon2id.
type argon2Hasher struct {
	params Argon2Params
	random io.Reader
}

// NewArgon2Hasher is the constructor for argon2Hasher.
func NewArgon2Hasher(cfg *config.Config) service.PasswordHasher {
	params := DefaultArgon2Params()
	if cfg != nil && cfg.Auth != nil {
		params = Argon2ParamsFromConfig(cfg.Auth.Argon2)
	}

	return NewArgon2HasherWithParams(params)
}

// NewArgon2HasherWithParams builds a hasher with explicit cost parameters.
func NewArgon2HasherWithParams(params Argon2Params) service.PasswordHasher {
	return &argon2Hasher{params: params, random: rand.Reader}
}

// Hash returns a PHC string: $argon2id$v=19$m=..,t=..,p=..$<salt>$<key>.
func (h *argon2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.WithStack(service.ErrEmptyPassword)
	}
	defer observeHash("hash", time.Now())

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(h.random, salt); err != nil {
		return "", errors.Wrapf(service.ErrInternal, "read salt: %v", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters embedded in storedHash.
func (h *argon2Hasher) Verify(password, storedHash string) (bool, error) {
	parsed, err := parsePHC(storedHash)
	if err != nil {
		return false, errors.Wrapf(service.ErrInternal, "parse stored hash: %v", err)
	}
	defer observeHash("verify", time.Now())

	key := argon2.IDKey([]byte(password), parsed.salt, parsed.params.Iterations, parsed.params.Memory, parsed.params.Parallelism, parsed.params.KeyLength)

	return subtle.ConstantTimeCompare(key, parsed.key) == 1, nil
}

func (h *argon2Hasher) NeedsRehash(storedHash string) (bool, error) {
	parsed, err := parsePHC(storedHash)
	if err != nil {
		return false, errors.Wrapf(service.ErrInternal, "parse stored hash: %v", err)
	}

	current := h.params
	stored := parsed.params

	return stored.Memory != current.Memory ||
		stored.Iterations != current.Iterations ||
		stored.Parallelism != current.Parallelism ||
		stored.SaltLength != current.SaltLength ||
		stored.KeyLength != current.KeyLength, nil
}

type phc struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

// Upper bound on the memory a stored hash may ask for, 4 GiB.
const maxMemoryKiB = 4 * 1024 * 1024

func parsePHC(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, errors.Errorf("unsupported algorithm %q", parts[1])
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, errors.New("missing argon2 version")
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return nil, errors.Errorf("unsupported argon2 version %q", version)
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, errors.New("invalid salt encoding")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, errors.New("invalid hash encoding")
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))

	return &phc{params: params, salt: salt, key: key}, nil
}

func parseParams(part string) (Argon2Params, error) {
	var (
		params                    Argon2Params
		memSet, timeSet, parallel bool
	)

	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return params, errors.New("invalid parameter format")
	}

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return params, errors.New("invalid parameter entry")
		}

		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n == 0 || n > maxMemoryKiB {
				return params, errors.New("invalid memory parameter")
			}
			params.Memory = uint32(n)
			memSet = true
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n == 0 {
				return params, errors.New("invalid time parameter")
			}
			params.Iterations = uint32(n)
			timeSet = true
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n == 0 {
				return params, errors.New("invalid parallelism parameter")
			}
			params.Parallelism = uint8(n)
			parallel = true
		default:
			return params, errors.Errorf("unsupported parameter %q", k)
		}
	}

	if !memSet || !timeSet || !parallel {
		return params, errors.New("missing parameters")
	}
	if params.Memory < 8*uint32(params.Parallelism) {
		return params, errors.New("memory below 8*parallelism")
	}

	return params, nil
}
