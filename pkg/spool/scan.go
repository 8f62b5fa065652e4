package spool

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/barnettlynn/spooltag/pkg/dump"
	"github.com/barnettlynn/spooltag/pkg/keys"
	"github.com/barnettlynn/spooltag/pkg/mifare"
)

// ScanResult is everything learned from reading one spool tag.
type ScanResult struct {
	RunID     string
	Info      mifare.CardInfo
	Keys      keys.Set
	Image     []byte
	Artifacts *dump.Artifacts
}

// Scan derives the keys of the card bound to sess, reads its memory and
// builds the artifact set.
func Scan(sess mifare.Session, secret keys.Secret) (*ScanResult, error) {
	runID := uuid.NewString()
	info := sess.Info()
	log := slog.With("run_id", runID, "uid", info.UIDHex())

	if info.Family != mifare.FamilyClassic {
		return nil, &mifare.TagTypeMismatchError{Field: "family", Expected: mifare.FamilyClassic.String(), Actual: info.Family.String()}
	}

	ks := secret.Derive(info.UID, info.Layout.Sectors)
	log.Debug("keys derived", "sectors", len(ks))

	image, err := mifare.ReadCard(sess, ks)
	if err != nil {
		log.Debug("read failed", "err", err)
		return nil, fmt.Errorf("read card %s: %w", info.UIDHex(), err)
	}
	log.Debug("card read", "bytes", len(image))

	a, err := dump.Build(info.UID, image, ks)
	if err != nil {
		return nil, fmt.Errorf("build artifacts: %w", err)
	}
	log.Info("spool scanned", "type", a.Metadata.Type, "color", a.Metadata.Color, "base", a.BaseName)

	return &ScanResult{RunID: runID, Info: info, Keys: ks, Image: image, Artifacts: a}, nil
}

// Clone writes a full dump onto the blank card bound to sess.
func Clone(sess mifare.Session, full []byte) error {
	if _, err := dump.LayoutOf(full); err != nil {
		return err
	}
	runID := uuid.NewString()
	info := sess.Info()
	log := slog.With("run_id", runID, "uid", info.UIDHex())

	log.Debug("writing card", "bytes", len(full))
	if err := mifare.WriteCard(sess, full); err != nil {
		log.Debug("write failed", "err", err)
		return err
	}
	log.Info("card cloned", "bytes", len(full))
	return nil
}
