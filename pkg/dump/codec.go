// Package dump encodes and decodes spool tag memory images.
//
// A dump is the raw card memory with each sector's key A written back into its
// trailer, so that writing the dump to a blank card reproduces both data and
// keys. Filament metadata lives at fixed offsets in sector 1:
//
//	Block 4 (bytes 64-79): filament type, text padded with NUL
//	Block 5 (bytes 80-83): color as R, G, B, A
package dump

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/barnettlynn/spooltag/pkg/color"
	"github.com/barnettlynn/spooltag/pkg/keys"
	"github.com/barnettlynn/spooltag/pkg/mifare"
)

const (
	typeOffset  = 4 * mifare.BlockSize
	typeLen     = mifare.BlockSize
	colorOffset = 5 * mifare.BlockSize
	colorLen    = 4

	// MinMetadataSize is the shortest buffer ParseMetadata accepts.
	MinMetadataSize = colorOffset

	uidLen = 4
)

// InsufficientDataError reports a buffer too short for the fields being parsed.
type InsufficientDataError struct {
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data in tag dump: need %d bytes, got %d", e.Need, e.Got)
}

// Metadata is the filament information stored on a spool tag.
type Metadata struct {
	Type  string
	Color color.Name
	RGBA  [4]byte
}

// ParseMetadata reads the filament type and color from image.
// Bytes past the end of a short (but at least 80-byte) buffer read as zero.
func ParseMetadata(image []byte) (Metadata, error) {
	if len(image) < MinMetadataSize {
		return Metadata{}, &InsufficientDataError{Need: MinMetadataSize, Got: len(image)}
	}

	var md Metadata
	md.Type = strings.TrimFunc(string(image[typeOffset:typeOffset+typeLen]), func(r rune) bool {
		return r == 0 || unicode.IsSpace(r)
	})
	if len(image) > colorOffset {
		copy(md.RGBA[:], image[colorOffset:min(len(image), colorOffset+colorLen)])
	}

	name, err := color.Classify(md.RGBA[0], md.RGBA[1], md.RGBA[2])
	if err != nil {
		return Metadata{}, err
	}
	md.Color = name
	return md, nil
}

// Label returns "<type>-<color>".
func (m Metadata) Label() string {
	return m.Type + "-" + string(m.Color)
}

// LayoutOf validates the size of a full image and returns its layout.
func LayoutOf(image []byte) (mifare.Layout, error) {
	if len(image)%mifare.BlockSize != 0 {
		return mifare.Layout{}, fmt.Errorf("dump size %d is not a multiple of %d", len(image), mifare.BlockSize)
	}
	return mifare.LayoutForSize(len(image))
}

// EmbedKeys returns a copy of image with ks written into the key A slot of
// every sector trailer. Access bits, key B and data blocks are left as read.
func EmbedKeys(image []byte, ks keys.Set) ([]byte, error) {
	layout, err := LayoutOf(image)
	if err != nil {
		return nil, err
	}
	if len(ks) != layout.Sectors {
		return nil, fmt.Errorf("key set has %d keys, dump has %d sectors", len(ks), layout.Sectors)
	}

	out := append([]byte(nil), image...)
	for sector, key := range ks {
		off := layout.TrailerBlock(sector) * mifare.BlockSize
		copy(out[off:off+keys.KeySize], key[:])
	}
	return out, nil
}

// ExtractKeys reads back the keys embedded by EmbedKeys.
func ExtractKeys(image []byte) (keys.Set, error) {
	layout, err := LayoutOf(image)
	if err != nil {
		return nil, err
	}
	ks := make(keys.Set, layout.Sectors)
	for sector := range ks {
		off := layout.TrailerBlock(sector) * mifare.BlockSize
		copy(ks[sector][:], image[off:off+keys.KeySize])
	}
	return ks, nil
}

// UID returns the card UID stored in the manufacturer block.
func UID(image []byte) ([]byte, error) {
	if len(image) < mifare.BlockSize {
		return nil, &InsufficientDataError{Need: mifare.BlockSize, Got: len(image)}
	}
	uid := append([]byte(nil), image[:uidLen]...)
	// BCC is the XOR of the four UID bytes.
	if bcc := uid[0] ^ uid[1] ^ uid[2] ^ uid[3]; image[uidLen] != bcc {
		return nil, fmt.Errorf("manufacturer block BCC mismatch: got %02X, want %02X", image[uidLen], bcc)
	}
	return uid, nil
}
