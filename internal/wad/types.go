package wad

import (
	"fmt"

	"github.com/jchantrell/quakefs/internal/binfmt"
)

// LumpType is the kind of data a lump holds.
type LumpType uint8

// Recognised lump types. The legacy "lumpy" type shares its code with
// TypePalette and is not listed separately.
const (
	TypeNone    LumpType = 0
	TypeLabel   LumpType = 1
	TypePalette LumpType = 64
	TypeQTex    LumpType = 65
	TypeQPic    LumpType = 66
	TypeSound   LumpType = 67
	TypeMipTex  LumpType = 68
)

func parseLumpType(code uint8) (LumpType, error) {
	switch t := LumpType(code); t {
	case TypeNone, TypeLabel, TypePalette, TypeQTex, TypeQPic, TypeSound, TypeMipTex:
		return t, nil
	default:
		return 0, fmt.Errorf("invalid lump type %d: %w", code, binfmt.ErrMalformedArchive)
	}
}

func (t LumpType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeLabel:
		return "label"
	case TypePalette:
		return "palette"
	case TypeQTex:
		return "qtex"
	case TypeQPic:
		return "qpic"
	case TypeSound:
		return "sound"
	case TypeMipTex:
		return "miptex"
	default:
		return fmt.Sprintf("LumpType(%d)", uint8(t))
	}
}

// Compression is the compression applied to a lump's on-disk bytes.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZSS Compression = 1
)

func parseCompression(code uint8) (Compression, error) {
	switch c := Compression(code); c {
	case CompressionNone, CompressionLZSS:
		return c, nil
	default:
		return 0, fmt.Errorf("invalid compression type %d: %w", code, binfmt.ErrMalformedArchive)
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZSS:
		return "lzss"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}
