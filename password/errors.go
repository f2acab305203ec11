package password

import "errors"

var (
	// ErrHashing reports that salt generation or the digest computation failed.
	// It is an operational failure, never a statement about the password itself.
	ErrHashing = errors.New("failed to hash password")
	// ErrVerification reports that a stored hash could not be parsed.
	// Callers should treat it as corrupted state rather than a failed login.
	ErrVerification = errors.New("failed to verify password")
	// ErrPasswordPolicy reports a plaintext rejected by the configured policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrInvalidConfig reports unusable hasher parameters.
	ErrInvalidConfig = errors.New("invalid password config")
)
