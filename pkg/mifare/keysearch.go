package mifare

import (
	"log/slog"

	"github.com/barnettlynn/spooltag/pkg/keys"
)

// Candidate is a labelled key set to try, one key per sector.
type Candidate struct {
	Label string
	Keys  keys.Set
}

// Uniform returns a candidate using key for every one of n sectors.
func Uniform(label string, key keys.Key, n int) Candidate {
	ks := make(keys.Set, n)
	for i := range ks {
		ks[i] = key
	}
	return Candidate{Label: label, Keys: ks}
}

// SectorKey is the search outcome for one sector. Label is empty when no
// candidate was accepted.
type SectorKey struct {
	Sector int
	Label  string
	Key    keys.Key
}

func (s SectorKey) Found() bool { return s.Label != "" }

// FindSectorKeys finds, for every sector, the first candidate whose key A the card
// accepts. Candidates shorter than the sector count are skipped for the
// missing sectors. Nothing is written.
func FindSectorKeys(sess Session, candidates []Candidate) (result []SectorKey, err error) {
	layout := sess.Info().Layout
	if err := sess.Connect(); err != nil {
		return nil, ioErr("connect", -1, -1, err)
	}
	defer func() {
		if derr := sess.Disconnect(); derr != nil && err == nil {
			err = ioErr("disconnect", -1, -1, derr)
		}
	}()

	// A rejected key halts the card until the next connect.
	halted := false
	result = make([]SectorKey, layout.Sectors)
	for sector := 0; sector < layout.Sectors; sector++ {
		result[sector].Sector = sector
		for _, c := range candidates {
			if sector >= len(c.Keys) {
				continue
			}
			if halted {
				if err := sess.Disconnect(); err != nil {
					return nil, ioErr("disconnect", -1, -1, err)
				}
				if err := sess.Connect(); err != nil {
					return nil, ioErr("connect", -1, -1, err)
				}
				halted = false
			}
			ok, err := sess.AuthenticateSectorA(sector, c.Keys[sector])
			if err != nil {
				return nil, ioErr("authenticate", sector, -1, err)
			}
			if ok {
				result[sector].Label = c.Label
				result[sector].Key = c.Keys[sector]
				break
			}
			halted = true
		}
		slog.Debug("sector searched", "sector", sector, "label", result[sector].Label)
	}
	return result, nil
}
