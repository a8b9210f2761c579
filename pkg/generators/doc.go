// Package generators implements the simple random generators of fabricate:
// raw bytes and their text encodings, passwords, passphrases, usernames,
// digits, numbers, timestamps and UUIDs.
//
// Every generator that needs randomness takes a *rand.Rand, which is never
// shared between goroutines, so the functions can be used directly as
// emit.Task bodies.
package generators
