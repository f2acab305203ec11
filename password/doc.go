// Package password implements one-way password credentials on top of Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format with unpadded base64:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// With [DefaultConfig] the encoded form is exactly 97 bytes long.
//
// # Credential
//
// A [Credential] owns a single encoded hash. It is created once from a plaintext
// with [New] (or [Argon2.NewCredential]), verified any number of times with
// [Credential.Verify], and moved across a persistence boundary with
// [Credential.Export] and [Import]. Import performs no validation: a corrupted
// string only surfaces as [ErrVerification] when it is first verified.
//
// A wrong password is not an error. Verify returns (false, nil) for a mismatch and
// reserves errors for state it cannot parse.
//
// The [Argon2] hasher supports parameter upgrades: when a stored hash was produced
// with weaker parameters, [Credential.Upgrade] rehashes it after a successful match.
//
// # What this package must NOT do
//
//   - Store or retrieve credentials; callers persist the exported string.
//   - Import any other kit package.
//   - Log plaintext passwords or hashes.
package password
