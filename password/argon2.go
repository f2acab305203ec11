package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// Floors for newly configured hashers.
const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// Limits of the algorithm itself, applied to stored hashes.
const (
	phcMinMemoryPerLane uint64 = 8
	phcMinSaltLength           = 8
	phcMinKeyLength            = 4
)

// Default cost parameters. They match the recommended Argon2id profile
// (19 MiB, two passes, one lane) and yield a 97 byte encoded hash.
const (
	DefaultMemory      uint32 = 19 * 1024
	DefaultTime        uint32 = 2
	DefaultParallelism uint8  = 1
	DefaultSaltLength  uint32 = 16
	DefaultKeyLength   uint32 = 32
)

// Config holds Argon2id cost parameters and hashing policy.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Memory      uint32 // in KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// MinPasswordBytes rejects shorter plaintexts at hash time. Zero disables the check.
	MinPasswordBytes int
	// MaxConcurrent bounds simultaneous hash computations. Zero disables the limit.
	MaxConcurrent int
}

// DefaultConfig returns the recommended Argon2id parameters.
func DefaultConfig() Config {
	return Config{
		Memory:      DefaultMemory,
		Time:        DefaultTime,
		Parallelism: DefaultParallelism,
		SaltLength:  DefaultSaltLength,
		KeyLength:   DefaultKeyLength,
	}
}

// Recorder receives hash and verify outcomes. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordHash(d time.Duration, err error)
	RecordVerify(d time.Duration, match bool, err error)
}

// Option customizes an [Argon2] hasher.
type Option func(*Argon2)

// WithRandom replaces the salt source. The reader must yield cryptographically secure bytes.
func WithRandom(r io.Reader) Option {
	return func(a *Argon2) {
		if r != nil {
			a.random = r
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Argon2) {
		a.recorder = r
	}
}

// Argon2 hashes and verifies passwords with Argon2id and PHC encoded output.
//
// Argon2 is safe for concurrent use.
type Argon2 struct {
	config   Config
	random   io.Reader
	recorder Recorder
	sem      *semaphore.Weighted
}

// HashInfo describes the parameters recorded in an encoded hash.
type HashInfo struct {
	Algorithm   string
	Version     int
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

type parsedPHC struct {
	version     int
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

// NewArgon2 validates cfg and returns a hasher using it.
func NewArgon2(cfg Config, opts ...Option) (*Argon2, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	a := &Argon2{
		config: cfg,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(a)
	}
	if cfg.MaxConcurrent > 0 {
		a.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}

	return a, nil
}

// Config returns the hasher's parameters.
func (a *Argon2) Config() Config {
	return a.config
}

// Hash derives a PHC encoded Argon2id hash of password with a fresh random salt.
//
// Password bytes are used exactly as provided (no Unicode normalization).
// Failures are reported as [ErrHashing] or [ErrPasswordPolicy].
func (a *Argon2) Hash(password string) (string, error) {
	start := time.Now()
	encoded, err := a.hash(password)
	if a.recorder != nil {
		a.recorder.RecordHash(time.Since(start), err)
	}
	return encoded, err
}

func (a *Argon2) hash(password string) (string, error) {
	if a.config.MinPasswordBytes > 0 && len(password) < a.config.MinPasswordBytes {
		return "", fmt.Errorf("%w: password must be at least %d bytes", ErrPasswordPolicy, a.config.MinPasswordBytes)
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(a.random, salt); err != nil {
		return "", fmt.Errorf("%w: generate salt: %w", ErrHashing, err)
	}

	release, err := a.acquire()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHashing, err)
	}
	defer release()

	key := argon2.IDKey(
		[]byte(password),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)

	return encodePHC(a.config, salt, key), nil
}

// Verify reports whether password matches encodedHash.
//
// A wrong password yields (false, nil). A malformed or unsupported hash yields [ErrVerification].
func (a *Argon2) Verify(password string, encodedHash string) (bool, error) {
	start := time.Now()
	ok, err := a.verify(password, encodedHash)
	if a.recorder != nil {
		a.recorder.RecordVerify(time.Since(start), ok, err)
	}
	return ok, err
}

func (a *Argon2) verify(password string, encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	release, err := a.acquire()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrVerification, err)
	}
	defer release()

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		parsed.keyLength,
	)

	if subtle.ConstantTimeCompare(computed, parsed.hash) == 1 {
		return true, nil
	}

	// PHC strings do not record the output length, so a digest shorter or
	// longer than ours is indistinguishable from a truncated one. It still
	// verifies the right password; anything else is reported as corrupt.
	if parsed.keyLength != a.config.KeyLength {
		return false, fmt.Errorf("%w: digest length %d does not match key length %d",
			ErrVerification, parsed.keyLength, a.config.KeyLength)
	}
	return false, nil
}

// NeedsRehash reports whether encodedHash was produced with weaker parameters
// than the hasher's current configuration.
func (a *Argon2) NeedsRehash(encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	switch {
	case a.config.Memory > parsed.memory:
		return true, nil
	case a.config.Time > parsed.time:
		return true, nil
	case a.config.Parallelism > parsed.parallelism:
		return true, nil
	case a.config.KeyLength != parsed.keyLength:
		return true, nil
	case a.config.SaltLength > uint32(len(parsed.salt)):
		return true, nil
	}

	return false, nil
}

// Info parses encodedHash without verifying anything against it.
func (a *Argon2) Info(encodedHash string) (HashInfo, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return HashInfo{}, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	return HashInfo{
		Algorithm:   algorithmID,
		Version:     parsed.version,
		Memory:      parsed.memory,
		Time:        parsed.time,
		Parallelism: parsed.parallelism,
		SaltLength:  uint32(len(parsed.salt)),
		KeyLength:   parsed.keyLength,
	}, nil
}

func (a *Argon2) acquire() (func(), error) {
	if a.sem == nil {
		return func() {}, nil
	}
	if err := a.sem.Acquire(context.Background(), 1); err != nil {
		return nil, err
	}
	return func() { a.sem.Release(1) }, nil
}

func encodePHC(cfg Config, salt, key []byte) string {
	var b strings.Builder
	b.Grow(64 + base64.RawStdEncoding.EncodedLen(len(salt)) + base64.RawStdEncoding.EncodedLen(len(key)))

	b.WriteByte('$')
	b.WriteString(algorithmID)
	b.WriteString("$v=")
	b.WriteString(strconv.Itoa(argon2.Version))
	b.WriteString("$m=")
	b.WriteString(strconv.FormatUint(uint64(cfg.Memory), 10))
	b.WriteString(",t=")
	b.WriteString(strconv.FormatUint(uint64(cfg.Time), 10))
	b.WriteString(",p=")
	b.WriteString(strconv.FormatUint(uint64(cfg.Parallelism), 10))
	b.WriteByte('$')
	b.WriteString(base64.RawStdEncoding.EncodeToString(salt))
	b.WriteByte('$')
	b.WriteString(base64.RawStdEncoding.EncodeToString(key))

	return b.String()
}

func parsePHC(encodedHash string) (*parsedPHC, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}

	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}

	versionPart := parts[2]
	if !strings.HasPrefix(versionPart, "v=") {
		return nil, errors.New("missing argon2 version")
	}

	version, err := strconv.Atoi(strings.TrimPrefix(versionPart, "v="))
	if err != nil {
		return nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	if uint64(params.memory) < phcMinMemoryPerLane*uint64(params.parallelism) {
		return nil, errors.New("invalid memory parameter")
	}

	salt, err := decodeB64(parts[4])
	if err != nil {
		return nil, errors.New("invalid salt encoding")
	}
	if len(salt) < phcMinSaltLength {
		return nil, errors.New("invalid salt length")
	}

	hash, err := decodeB64(parts[5])
	if err != nil {
		return nil, errors.New("invalid hash encoding")
	}
	if len(hash) < phcMinKeyLength {
		return nil, errors.New("invalid hash length")
	}

	return &parsedPHC{
		version:     version,
		memory:      params.memory,
		time:        params.time,
		parallelism: params.parallelism,
		salt:        salt,
		hash:        hash,
		keyLength:   uint32(len(hash)),
	}, nil
}

// decodeB64 accepts the canonical unpadded PHC alphabet as well as padded input.
// Trailing bits must be zero.
func decodeB64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.Strict().DecodeString(s)
	}
	return base64.RawStdEncoding.Strict().DecodeString(s)
}

type parsedParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func parseParams(part string) (*parsedParams, error) {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return nil, errors.New("invalid parameter format")
	}

	var (
		memorySet, timeSet, parallelismSet bool
		params                             parsedParams
	)

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.New("invalid parameter entry")
		}

		switch key {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || v == 0 || memorySet {
				return nil, errors.New("invalid memory parameter")
			}
			params.memory = uint32(v)
			memorySet = true
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || v < 1 || timeSet {
				return nil, errors.New("invalid time parameter")
			}
			params.time = uint32(v)
			timeSet = true
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil || v < 1 || parallelismSet {
				return nil, errors.New("invalid parallelism parameter")
			}
			params.parallelism = uint8(v)
			parallelismSet = true
		default:
			return nil, errors.New("unsupported parameter")
		}
	}

	if !memorySet || !timeSet || !parallelismSet {
		return nil, errors.New("missing parameters")
	}

	return &params, nil
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.Memory < minMemoryKB:
		return fmt.Errorf("%w: memory must be >= %d KiB", ErrInvalidConfig, minMemoryKB)
	case cfg.Time < minTimeCost:
		return fmt.Errorf("%w: time must be >= %d", ErrInvalidConfig, minTimeCost)
	case cfg.Parallelism < minParallelism:
		return fmt.Errorf("%w: parallelism must be >= %d", ErrInvalidConfig, minParallelism)
	case cfg.SaltLength < minSaltLength:
		return fmt.Errorf("%w: salt length must be >= %d", ErrInvalidConfig, minSaltLength)
	case cfg.KeyLength < minKeyLength:
		return fmt.Errorf("%w: key length must be >= %d", ErrInvalidConfig, minKeyLength)
	case cfg.MinPasswordBytes < 0:
		return fmt.Errorf("%w: min password bytes must be >= 0", ErrInvalidConfig)
	case cfg.MaxConcurrent < 0:
		return fmt.Errorf("%w: max concurrent must be >= 0", ErrInvalidConfig)
	}

	return nil
}
