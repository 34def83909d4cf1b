// Package binfmt holds the pieces shared by the PACK and WAD2 parsers:
// sentinel errors, fixed-width name decoding and checked integer widening.
package binfmt

import "errors"

var (
	// ErrMalformedArchive indicates a container with a bad magic, an invalid
	// enum code, an undecodable name field or a negative size/offset.
	ErrMalformedArchive = errors.New("malformed archive")
	// ErrTooManyEntries indicates a pack directory larger than MaxPackEntries.
	ErrTooManyEntries = errors.New("too many entries in archive")
)
