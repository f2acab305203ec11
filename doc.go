// Package kit bundles a small set of helper abstractions behind one facade:
// Argon2id password credentials (package password), value providers
// (package get) and synchronous/asynchronous dispatch (package dispatch).
//
// A [Kit] is assembled through [Builder.Build] from an explicit [Config]. The
// configuration may be overlaid from the environment with [LoadConfig]; nothing
// in the kit reads ambient state on its own.
//
// # Architecture boundaries
//
// kit is the wiring layer. It owns the shared hasher, the dispatch pool and the
// metrics registry, and hands out credentials bound to that hasher. The
// sub-packages never import kit.
//
// # What this package must NOT do
//
//   - Store credentials. Callers persist [password.Credential.Export] output.
//   - Log plaintext passwords or encoded hashes.
//   - Start goroutines outside the dispatch pool.
package kit
