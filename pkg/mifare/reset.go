package mifare

import (
	"fmt"
	"log/slog"

	"github.com/barnettlynn/spooltag/pkg/keys"
)

// TransportAccessBits are the factory access conditions of a sector trailer:
// key A grants every operation and key B is readable data.
var TransportAccessBits = [4]byte{0xFF, 0x07, 0x80, 0x69}

// TransportImage returns the memory of a factory-fresh card: data zeroed,
// every trailer holding DefaultKey as key A and key B.
func TransportImage(layout Layout) []byte {
	image := make([]byte, layout.Size())
	for s := 0; s < layout.Sectors; s++ {
		off := layout.TrailerBlock(s) * BlockSize
		copy(image[off:], DefaultKey[:])
		copy(image[off+keys.KeySize:], TransportAccessBits[:])
		copy(image[off+keys.KeySize+len(TransportAccessBits):], DefaultKey[:])
	}
	return image
}

// ResetCard returns a cloned card to transport state so it can be written again.
//
// Steps:
//  1. Connect
//  2. For each sector: authenticate with ks[sector], falling back to
//     DefaultKey after a reconnect (a failed authentication halts the card)
//  3. Zero every data block and write the transport trailer
//
// Block 0 is left untouched. Trying DefaultKey per sector lets a card left
// half-written by WriteCard be reset as well. Failures after the first
// written block return *PartialWriteError.
func ResetCard(sess Session, ks keys.Set) error {
	info := sess.Info()
	if info.Family != FamilyClassic {
		return &TagTypeMismatchError{Field: "family", Expected: FamilyClassic.String(), Actual: info.Family.String()}
	}
	layout := info.Layout
	if len(ks) < layout.Sectors {
		return fmt.Errorf("key set has %d keys, card has %d sectors", len(ks), layout.Sectors)
	}

	w := &blockWriter{sess: sess, image: TransportImage(layout)}
	if err := w.connect(); err != nil {
		return err
	}
	var err error
	for sector := 0; sector < layout.Sectors && err == nil; sector++ {
		err = w.resetSector(layout, sector, ks[sector])
	}
	if derr := w.disconnect(); derr != nil && err == nil {
		err = w.fail(0, -1, ioErr("disconnect", -1, -1, derr))
	}
	if err == nil {
		slog.Debug("card reset", "uid", info.UIDHex(), "blocks", w.written)
	}
	return err
}

// authenticateAny tries each candidate key in order.
func (w *blockWriter) authenticateAny(sector int, candidates ...keys.Key) error {
	for i, key := range candidates {
		if i > 0 {
			if err := w.reconnect(); err != nil {
				return err
			}
		}
		ok, err := w.sess.AuthenticateSectorA(sector, key)
		if err != nil {
			return w.fail(sector, -1, ioErr("authenticate", sector, -1, err))
		}
		if ok {
			slog.Debug("sector authenticated", "sector", sector, "candidate", i)
			return nil
		}
	}
	return w.fail(sector, -1, &AuthenticationError{Sector: sector})
}

func (w *blockWriter) resetSector(layout Layout, sector int, key keys.Key) error {
	candidates := []keys.Key{key}
	if key != DefaultKey {
		candidates = append(candidates, DefaultKey)
	}
	if err := w.authenticateAny(sector, candidates...); err != nil {
		return err
	}
	first := layout.FirstBlock(sector)
	for b := 0; b < layout.BlocksInSector(sector); b++ {
		if first+b == 0 {
			continue
		}
		if err := w.writeBlock(sector, first+b); err != nil {
			return err
		}
	}
	return nil
}
