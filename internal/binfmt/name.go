package binfmt

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// CString decodes a fixed-width, NUL-padded name field. Only the bytes before
// the first NUL are used; whatever follows it is ignored. A field with no NUL
// is taken whole. The result must be valid UTF-8.
func CString(field []byte) (string, error) {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	if !utf8.Valid(field) {
		return "", fmt.Errorf("name field %q is not valid text: %w", field, ErrMalformedArchive)
	}
	return string(field), nil
}
