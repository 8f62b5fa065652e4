package mifare

import (
	"fmt"
	"log/slog"

	"github.com/barnettlynn/spooltag/pkg/keys"
)

// ReadCard assembles the full memory image of the card bound to sess.
//
// Steps:
//  1. Connect
//  2. For each sector in order: authenticate with key A = ks[sector]
//  3. Read every block of the sector in order into the image
//  4. Disconnect (on every exit path)
//
// A rejected key aborts the read with *AuthenticationError and no partial
// image. No retries are made; callers re-run the whole read if they want one.
func ReadCard(sess Session, ks keys.Set) (image []byte, err error) {
	info := sess.Info()
	layout := info.Layout
	if len(ks) < layout.Sectors {
		return nil, fmt.Errorf("key set has %d keys, card has %d sectors", len(ks), layout.Sectors)
	}

	if err := sess.Connect(); err != nil {
		return nil, ioErr("connect", -1, -1, err)
	}
	defer func() {
		if derr := sess.Disconnect(); derr != nil {
			slog.Warn("disconnect after read failed", "uid", info.UIDHex(), "err", derr)
			if err == nil {
				image, err = nil, ioErr("disconnect", -1, -1, derr)
			}
		}
	}()

	image = make([]byte, layout.Size())
	for sector := 0; sector < layout.Sectors; sector++ {
		ok, err := sess.AuthenticateSectorA(sector, ks[sector])
		if err != nil {
			return nil, ioErr("authenticate", sector, -1, err)
		}
		if !ok {
			return nil, &AuthenticationError{Sector: sector}
		}

		first := layout.FirstBlock(sector)
		for b := 0; b < layout.BlocksInSector(sector); b++ {
			block := first + b
			data, err := sess.ReadBlock(block)
			if err != nil {
				return nil, ioErr("read", sector, block, err)
			}
			if len(data) != BlockSize {
				return nil, ioErr("read", sector, block, fmt.Errorf("got %d bytes, want %d", len(data), BlockSize))
			}
			copy(image[block*BlockSize:], data)
		}
		slog.Debug("sector read", "sector", sector)
	}
	return image, nil
}
