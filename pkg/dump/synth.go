package dump

import (
	"fmt"

	"github.com/barnettlynn/spooltag/pkg/keys"
	"github.com/barnettlynn/spooltag/pkg/mifare"
)

// Tag describes a spool tag to synthesize.
type Tag struct {
	UID    []byte
	Layout mifare.Layout
	Type   string
	RGBA   [4]byte
}

// Synthesize builds the full dump a spool tag with the given contents would
// produce. Trailers start from the transport state with key A replaced by
// the derived key.
func Synthesize(tag Tag, secret keys.Secret) ([]byte, error) {
	if len(tag.UID) != uidLen {
		return nil, fmt.Errorf("uid must be %d bytes, got %d", uidLen, len(tag.UID))
	}
	if len(tag.Type) > typeLen {
		return nil, fmt.Errorf("filament type %q longer than %d bytes", tag.Type, typeLen)
	}
	if tag.Layout.Sectors == 0 {
		tag.Layout = mifare.Layout1K
	}

	image := mifare.TransportImage(tag.Layout)
	copy(image, tag.UID)
	image[uidLen] = tag.UID[0] ^ tag.UID[1] ^ tag.UID[2] ^ tag.UID[3]
	image[uidLen+1] = 0x08 // SAK
	image[uidLen+2] = 0x04 // ATQA
	copy(image[typeOffset:], tag.Type)
	copy(image[colorOffset:], tag.RGBA[:])

	return EmbedKeys(image, secret.Derive(tag.UID, tag.Layout.Sectors))
}
