package generators

import "errors"

var (
	// ErrEmptyCharset is returned when a password is requested from an empty
	// character set.
	ErrEmptyCharset = errors.New("generators: empty character set")
	// ErrEmptyWordlist is returned when a word-based generator has no words.
	ErrEmptyWordlist = errors.New("generators: empty wordlist")
	// ErrInvalidRange is returned when a minimum exceeds its maximum.
	ErrInvalidRange = errors.New("generators: minimum exceeds maximum")
	// ErrInvalidFormat is returned for an unknown timestamp format name.
	ErrInvalidFormat = errors.New("generators: unknown timestamp format")
)
