package password

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
)

// Hasher produces and checks encoded password hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password string, encodedHash string) (bool, error)
	NeedsRehash(encodedHash string) (bool, error)
}

// Checker verifies candidate passwords against stored state.
type Checker interface {
	Verify(password string) (bool, error)
}

// Handler can both verify and replace its stored hash.
type Handler interface {
	Checker
	Reset(password string) error
}

var (
	_ Hasher  = (*Argon2)(nil)
	_ Handler = (*Credential)(nil)
)

var errUnset = errors.New("credential not set")

var defaultArgon2 = func() *Argon2 {
	a, err := NewArgon2(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return a
}()

// Default returns the hasher used by [New] and [Import].
func Default() *Argon2 {
	return defaultArgon2
}

// Credential holds exactly one encoded password hash.
//
// The zero value is an unset credential: Verify reports [ErrVerification] until a
// hash is assigned through [Credential.Reset] or [Credential.UnmarshalText].
// A Credential must not be copied after first use.
//
// Verify may be called from many goroutines at once. Reset and Upgrade replace the
// hash wholesale; the lock is held only while reading or swapping the string,
// never while hashing.
type Credential struct {
	mu      sync.RWMutex
	encoded string
	hasher  *Argon2
}

// New hashes plaintext with the default parameters.
func New(plaintext string) (*Credential, error) {
	return defaultArgon2.NewCredential(plaintext)
}

// Import wraps a previously exported hash without validating it.
func Import(encoded string) *Credential {
	return defaultArgon2.Import(encoded)
}

// NewCredential hashes plaintext with a's parameters.
func (a *Argon2) NewCredential(plaintext string) (*Credential, error) {
	encoded, err := a.Hash(plaintext)
	if err != nil {
		return nil, err
	}
	return &Credential{encoded: encoded, hasher: a}, nil
}

// Import wraps encoded and binds it to a for later verification and upgrades.
func (a *Argon2) Import(encoded string) *Credential {
	return &Credential{encoded: encoded, hasher: a}
}

// Verify reports whether password matches the stored hash.
//
// A mismatch is (false, nil). An unset or unparseable hash is [ErrVerification].
func (c *Credential) Verify(password string) (bool, error) {
	encoded := c.load()
	if encoded == "" {
		return false, fmt.Errorf("%w: %w", ErrVerification, errUnset)
	}
	return c.hasherOrDefault().Verify(password, encoded)
}

// Export returns the encoded hash for persistence. It is empty for an unset credential.
func (c *Credential) Export() string {
	return c.load()
}

// IsSet reports whether the credential holds a hash.
func (c *Credential) IsSet() bool {
	return c.load() != ""
}

// Info returns the parameters recorded in the stored hash.
func (c *Credential) Info() (HashInfo, error) {
	encoded := c.load()
	if encoded == "" {
		return HashInfo{}, fmt.Errorf("%w: %w", ErrVerification, errUnset)
	}
	return c.hasherOrDefault().Info(encoded)
}

// NeedsRehash reports whether the stored hash is weaker than the bound hasher's parameters.
func (c *Credential) NeedsRehash() (bool, error) {
	encoded := c.load()
	if encoded == "" {
		return false, fmt.Errorf("%w: %w", ErrVerification, errUnset)
	}
	return c.hasherOrDefault().NeedsRehash(encoded)
}

// Reset replaces the stored hash with a fresh hash of password.
// On error the previous hash is kept.
func (c *Credential) Reset(password string) error {
	if c == nil {
		return fmt.Errorf("%w: nil credential", ErrHashing)
	}

	encoded, err := c.hasherOrDefault().Hash(password)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoded = encoded
	return nil
}

// Upgrade verifies password and, when it matches a hash produced with weaker
// parameters, replaces the hash with one using the current parameters.
//
// The returned bool is the verification result. A failed rehash leaves the old
// hash in place and is reported alongside true.
func (c *Credential) Upgrade(password string) (bool, error) {
	encoded := c.load()
	if encoded == "" {
		return false, fmt.Errorf("%w: %w", ErrVerification, errUnset)
	}

	a := c.hasherOrDefault()
	ok, err := a.Verify(password, encoded)
	if err != nil || !ok {
		return ok, err
	}

	needs, err := a.NeedsRehash(encoded)
	if err != nil || !needs {
		return true, err
	}

	next, err := a.Hash(password)
	if err != nil {
		return true, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A concurrent Reset wins over an upgrade of the hash it replaced.
	if c.encoded == encoded {
		c.encoded = next
	}
	return true, nil
}

// MarshalText encodes the credential as its PHC string.
func (c *Credential) MarshalText() ([]byte, error) {
	return []byte(c.load()), nil
}

// UnmarshalText replaces the stored hash with text without validating it.
func (c *Credential) UnmarshalText(text []byte) error {
	c.store(string(text))
	return nil
}

// Scan implements [database/sql.Scanner]. NULL leaves the credential unset.
func (c *Credential) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		c.store("")
	case string:
		c.store(v)
	case []byte:
		c.store(string(v))
	default:
		return fmt.Errorf("password: cannot scan %T into Credential", src)
	}
	return nil
}

// Value implements [database/sql/driver.Valuer]. An unset credential is stored as NULL.
func (c *Credential) Value() (driver.Value, error) {
	encoded := c.load()
	if encoded == "" {
		return nil, nil
	}
	return encoded, nil
}

func (c *Credential) load() string {
	if c == nil {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.encoded
}

func (c *Credential) store(encoded string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoded = encoded
}

func (c *Credential) hasherOrDefault() *Argon2 {
	if c == nil || c.hasher == nil {
		return defaultArgon2
	}
	return c.hasher
}
