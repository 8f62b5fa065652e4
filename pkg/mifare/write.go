package mifare

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/barnettlynn/spooltag/pkg/keys"
)

// DefaultKey is the transport key of blank and rewritable cards.
var DefaultKey = keys.Key{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// ExpectedUIDLength is the UID length of the cards this package clones onto.
const ExpectedUIDLength = 4

// CheckTarget verifies that the card bound to sess can receive image.
// It performs no card I/O.
func CheckTarget(info CardInfo, image []byte) error {
	if info.Family != FamilyClassic {
		return &TagTypeMismatchError{Field: "family", Expected: FamilyClassic.String(), Actual: info.Family.String()}
	}
	if info.Size() != len(image) {
		return &TagTypeMismatchError{Field: "size", Expected: fmt.Sprintf("%d bytes", len(image)), Actual: fmt.Sprintf("%d bytes", info.Size())}
	}
	if len(info.UID) != ExpectedUIDLength {
		return &TagTypeMismatchError{Field: "uid length", Expected: fmt.Sprintf("%d bytes", ExpectedUIDLength), Actual: fmt.Sprintf("%d bytes", len(info.UID))}
	}
	return nil
}

// WriteCard clones image onto the card bound to sess.
//
// The target must accept DefaultKey on every sector. Steps:
//  1. Check family, size and UID length (no I/O on mismatch)
//  2. Connect, authenticate sector 0 with DefaultKey, write block 0
//  3. Disconnect and reconnect to reset the card state machine
//  4. For each sector: authenticate with DefaultKey, write every block in order
//
// If sector 0 rejects DefaultKey before anything was written the card is not
// blank and *TagTypeMismatchError is returned. Any failure after the first
// written block returns *PartialWriteError: blocks already written stay
// written and the card must be written again to reach a consistent state.
// The connection is closed on every exit path.
func WriteCard(sess Session, image []byte) error {
	info := sess.Info()
	if err := CheckTarget(info, image); err != nil {
		return err
	}
	layout := info.Layout
	w := &blockWriter{sess: sess, image: image}

	if err := w.connect(); err != nil {
		return err
	}
	err := w.writeManufacturerBlock()
	if err == nil {
		if err = w.reconnect(); err == nil {
			for sector := 0; sector < layout.Sectors && err == nil; sector++ {
				err = w.writeSector(layout, sector)
			}
		}
	}
	if derr := w.disconnect(); derr != nil && err == nil {
		err = w.fail(0, -1, ioErr("disconnect", -1, -1, derr))
	}
	if err == nil {
		slog.Debug("card written", "uid", info.UIDHex(), "blocks", w.written)
	}
	return err
}

type blockWriter struct {
	sess      Session
	image     []byte
	written   int
	connected bool
}

func (w *blockWriter) connect() error {
	if err := w.sess.Connect(); err != nil {
		return w.fail(0, -1, ioErr("connect", -1, -1, err))
	}
	w.connected = true
	return nil
}

func (w *blockWriter) disconnect() error {
	if !w.connected {
		return nil
	}
	w.connected = false
	return w.sess.Disconnect()
}

func (w *blockWriter) reconnect() error {
	if err := w.disconnect(); err != nil {
		return w.fail(0, -1, ioErr("disconnect", -1, -1, err))
	}
	return w.connect()
}

func (w *blockWriter) authenticate(sector int) error {
	ok, err := w.sess.AuthenticateSectorA(sector, DefaultKey)
	if err != nil {
		return w.fail(sector, -1, ioErr("authenticate", sector, -1, err))
	}
	if !ok {
		authErr := &AuthenticationError{Sector: sector}
		if w.written == 0 {
			return &TagTypeMismatchError{Field: "default key", Expected: "blank card accepting " + DefaultKey.String(), Actual: "key rejected", Cause: authErr}
		}
		return w.fail(sector, -1, authErr)
	}
	return nil
}

func (w *blockWriter) writeBlock(sector, block int) error {
	data := w.image[block*BlockSize : (block+1)*BlockSize]
	if err := w.sess.WriteBlock(block, data); err != nil {
		return w.fail(sector, block, ioErr("write", sector, block, err))
	}
	w.written++
	return nil
}

func (w *blockWriter) writeManufacturerBlock() error {
	if err := w.authenticate(0); err != nil {
		return err
	}
	return w.writeBlock(0, 0)
}

func (w *blockWriter) writeSector(layout Layout, sector int) error {
	if err := w.authenticate(sector); err != nil {
		return err
	}
	first := layout.FirstBlock(sector)
	for b := 0; b < layout.BlocksInSector(sector); b++ {
		if err := w.writeBlock(sector, first+b); err != nil {
			return err
		}
	}
	slog.Debug("sector written", "sector", sector)
	return nil
}

// fail wraps err as a partial write once at least one block is on the card.
func (w *blockWriter) fail(sector, block int, err error) error {
	if w.written == 0 {
		return err
	}
	var pw *PartialWriteError
	if errors.As(err, &pw) {
		return err
	}
	return &PartialWriteError{Sector: sector, Block: block, BlocksWritten: w.written, Err: err}
}
