package password

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/argon2"
)

func fastConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy unavailable")
}

type countingRecorder struct {
	mu        sync.Mutex
	hashes    int
	hashErrs  int
	verifies  int
	matches   int
	verifyErr int
}

func (r *countingRecorder) RecordHash(_ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hashes++
	if err != nil {
		r.hashErrs++
	}
}

func (r *countingRecorder) RecordVerify(_ time.Duration, match bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verifies++
	if match {
		r.matches++
	}
	if err != nil {
		r.verifyErr++
	}
}

func TestHashAndVerifyDefaults(t *testing.T) {
	hasher, err := NewArgon2(DefaultConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("mysecretpassword")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}
	if len(hash) != 97 {
		t.Fatalf("expected 97 byte encoded hash, got %d: %s", len(hash), hash)
	}

	ok, err := hasher.Verify("mysecretpassword", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := hasher.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	first, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct encodings for repeated hashes")
	}
	for _, h := range []string{first, second} {
		ok, err := hasher.Verify("same-password", h)
		if err != nil || !ok {
			t.Fatalf("Verify(%s) ok=%v err=%v", h, ok, err)
		}
	}
}

func TestHashEmptyPasswordAllowedByDefault(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	ok, err := hasher.Verify("", hash)
	if err != nil || !ok {
		t.Fatalf("Verify empty ok=%v err=%v", ok, err)
	}
}

func TestHashPolicyMinimumLength(t *testing.T) {
	cfg := fastConfig()
	cfg.MinPasswordBytes = 10
	hasher, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	if _, err := hasher.Hash("short"); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}
	if _, err := hasher.Hash("long-enough-password"); err != nil {
		t.Fatalf("Hash error: %v", err)
	}
}

func TestHashSaltFailureIsHashingError(t *testing.T) {
	hasher, err := NewArgon2(fastConfig(), WithRandom(failingReader{}))
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	_, err = hasher.Hash("any-password")
	if !errors.Is(err, ErrHashing) {
		t.Fatalf("expected ErrHashing, got %v", err)
	}
	if errors.Is(err, ErrVerification) {
		t.Fatal("hashing failure must not be reported as verification failure")
	}
}

func TestNeedsRehash(t *testing.T) {
	oldHasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2(old) error: %v", err)
	}

	hash, err := oldHasher.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	newHasher, err := NewArgon2(DefaultConfig())
	if err != nil {
		t.Fatalf("NewArgon2(new) error: %v", err)
	}

	needs, err := newHasher.NeedsRehash(hash)
	if err != nil {
		t.Fatalf("NeedsRehash error: %v", err)
	}
	if !needs {
		t.Fatal("expected NeedsRehash to return true for weaker hash parameters")
	}

	needs, err = oldHasher.NeedsRehash(hash)
	if err != nil {
		t.Fatalf("NeedsRehash error: %v", err)
	}
	if needs {
		t.Fatal("expected NeedsRehash to return false for current parameters")
	}
}

func TestInfo(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("info-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	info, err := hasher.Info(hash)
	if err != nil {
		t.Fatalf("Info error: %v", err)
	}
	want := HashInfo{
		Algorithm:   "argon2id",
		Version:     19,
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	if info != want {
		t.Fatalf("Info = %+v, want %+v", info, want)
	}
}

func TestVerifyAcceptsPaddedEncoding(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("padded-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	parts := strings.Split(hash, "$")
	salt, _ := base64.RawStdEncoding.DecodeString(parts[4])
	key, _ := base64.RawStdEncoding.DecodeString(parts[5])
	parts[4] = base64.StdEncoding.EncodeToString(salt)
	parts[5] = base64.StdEncoding.EncodeToString(key)
	padded := strings.Join(parts, "$")

	ok, err := hasher.Verify("padded-password", padded)
	if err != nil || !ok {
		t.Fatalf("Verify padded ok=%v err=%v", ok, err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	valid, err := hasher.Hash("malformed-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cases := map[string]string{
		"empty":         "",
		"not phc":       "not-a-phc-hash",
		"truncated":     valid[:len(valid)/2],
		"tail cut 1":    valid[:len(valid)-1],
		"tail cut 2":    valid[:len(valid)-2],
		"tail cut 3":    valid[:len(valid)-3],
		"bcrypt":        "$2b$10$abcdefghijklmnopqrstuu5R4Gf1PZ5Ya2C6UkQdC8T5p0yq5XrCe",
		"argon2i":       strings.Replace(valid, "$argon2id$", "$argon2i$", 1),
		"old version":   strings.Replace(valid, "$v=19$", "$v=16$", 1),
		"bad memory":    strings.Replace(valid, "m=8192", "m=4", 1),
		"dup param":     strings.Replace(valid, "p=1", "m=8192", 1),
		"extra param":   strings.Replace(valid, ",p=1", ",p=1,x=2", 1),
		"bad salt b64":  strings.Replace(valid, strings.Split(valid, "$")[4], "!!!!", 1),
		"short salt":    strings.Replace(valid, strings.Split(valid, "$")[4], "c2FsdA", 1),
		"missing field": strings.TrimSuffix(valid, "$"+strings.Split(valid, "$")[5]),
	}

	for name, encoded := range cases {
		t.Run(name, func(t *testing.T) {
			ok, err := hasher.Verify("malformed-password", encoded)
			if !errors.Is(err, ErrVerification) {
				t.Fatalf("expected ErrVerification, got ok=%v err=%v", ok, err)
			}
			if ok {
				t.Fatal("malformed hash must never verify")
			}
		})
	}
}

func TestVerifyTruncatedDigestNeverMatches(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	valid, err := hasher.Hash("cut-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	for n := 1; n <= 8; n++ {
		cut := valid[:len(valid)-n]
		for _, pw := range []string{"cut-password", "other-password"} {
			ok, err := hasher.Verify(pw, cut)
			if ok {
				t.Fatalf("cut by %d verified for %q", n, pw)
			}
			if !errors.Is(err, ErrVerification) {
				t.Fatalf("cut by %d with %q: expected ErrVerification, got %v", n, pw, err)
			}
		}
	}
}

func TestVerifyRejectsNonCanonicalTrailingBits(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	valid, err := hasher.Hash("bits-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	// A 32-byte digest leaves two unused bits in its final character.
	parts := strings.Split(valid, "$")
	digest := []byte(parts[5])
	last := strings.IndexByte(b64Alphabet, digest[len(digest)-1])
	digest[len(digest)-1] = b64Alphabet[last|1]
	parts[5] = string(digest)

	ok, err := hasher.Verify("bits-password", strings.Join(parts, "$"))
	if ok || !errors.Is(err, ErrVerification) {
		t.Fatalf("expected ErrVerification, got ok=%v err=%v", ok, err)
	}
}

const b64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// legacyHash builds a PHC string with parameters below the hasher floors.
func legacyHash(cfg Config, password string, salt []byte) string {
	key := argon2.IDKey([]byte(password), salt, cfg.Time, cfg.Memory, cfg.Parallelism, cfg.KeyLength)
	return encodePHC(cfg, salt, key)
}

func TestVerifyAcceptsLegacyParameters(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	cases := map[string]struct {
		cfg  Config
		salt []byte
	}{
		"low memory":  {Config{Memory: 7168, Time: 5, Parallelism: 1, KeyLength: 32}, []byte("sixteen-byte-slt")},
		"short salt":  {Config{Memory: 8192, Time: 1, Parallelism: 1, KeyLength: 32}, []byte("8bytesal")},
		"minimum mem": {Config{Memory: 8, Time: 1, Parallelism: 1, KeyLength: 32}, []byte("sixteen-byte-slt")},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			encoded := legacyHash(tc.cfg, "legacy-password", tc.salt)

			ok, err := hasher.Verify("legacy-password", encoded)
			if err != nil || !ok {
				t.Fatalf("Verify ok=%v err=%v", ok, err)
			}
			ok, err = hasher.Verify("wrong-password", encoded)
			if err != nil || ok {
				t.Fatalf("Verify(wrong) ok=%v err=%v", ok, err)
			}
			needs, err := hasher.NeedsRehash(encoded)
			if err != nil || !needs {
				t.Fatalf("NeedsRehash needs=%v err=%v", needs, err)
			}
		})
	}
}

func TestVerifyShortKeyFromOtherHasher(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	encoded := legacyHash(Config{Memory: 8192, Time: 1, Parallelism: 1, KeyLength: 12}, "short-key", []byte("sixteen-byte-slt"))

	ok, err := hasher.Verify("short-key", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify ok=%v err=%v", ok, err)
	}
	ok, err = hasher.Verify("wrong", encoded)
	if ok || !errors.Is(err, ErrVerification) {
		t.Fatalf("expected ErrVerification for wrong password, got ok=%v err=%v", ok, err)
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"memory":      func(c *Config) { c.Memory = 1024 },
		"time":        func(c *Config) { c.Time = 0 },
		"parallelism": func(c *Config) { c.Parallelism = 0 },
		"salt":        func(c *Config) { c.SaltLength = 8 },
		"key":         func(c *Config) { c.KeyLength = 8 },
		"min bytes":   func(c *Config) { c.MinPasswordBytes = -1 },
		"concurrency": func(c *Config) { c.MaxConcurrent = -1 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			if _, err := NewArgon2(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestRecorderObservesOutcomes(t *testing.T) {
	rec := &countingRecorder{}
	hasher, err := NewArgon2(fastConfig(), WithRecorder(rec))
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("recorded-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	_, _ = hasher.Verify("recorded-password", hash)
	_, _ = hasher.Verify("other-password", hash)
	_, _ = hasher.Verify("recorded-password", "garbage")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.hashes != 1 || rec.hashErrs != 0 {
		t.Fatalf("unexpected hash counts: %+v", rec)
	}
	if rec.verifies != 3 || rec.matches != 1 || rec.verifyErr != 1 {
		t.Fatalf("unexpected verify counts: %+v", rec)
	}
}

func TestMaxConcurrentHashing(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxConcurrent = 2
	hasher, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	const workers = 6
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hash, err := hasher.Hash("bounded-password")
			if err != nil {
				errs <- err
				return
			}
			ok, err := hasher.Verify("bounded-password", hash)
			if err != nil || !ok {
				errs <- errors.New("verify failed under bounded concurrency")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}
}
