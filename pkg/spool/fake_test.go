package spool

import (
	"errors"
	"testing"

	"github.com/barnettlynn/spooltag/pkg/keys"
	"github.com/barnettlynn/spooltag/pkg/mifare"
	"github.com/barnettlynn/spooltag/pkg/store"
)

var testUID = []byte{0xAA, 0xBB, 0xCC, 0xDD}

// memTag is a 1K card in memory. Key A reads back as zero.
type memTag struct {
	info      mifare.CardInfo
	mem       []byte
	keyA      keys.Set
	connected bool
	authed    int
	writes    int
}

func newMemTag(uid []byte, keyA keys.Set) *memTag {
	layout := mifare.Layout1K
	t := &memTag{
		info:   mifare.CardInfo{UID: uid, Family: mifare.FamilyClassic, Layout: layout},
		mem:    make([]byte, layout.Size()),
		keyA:   append(keys.Set(nil), keyA...),
		authed: -1,
	}
	copy(t.mem, uid)
	return t
}

// spoolTag returns a tag as shipped on a spool of Bambu Green PLA-Basic.
func spoolTag(t *testing.T) *memTag {
	t.Helper()
	tag := newMemTag(testUID, keys.Derive(testUID, mifare.Layout1K.Sectors))
	tag.mem[4] = testUID[0] ^ testUID[1] ^ testUID[2] ^ testUID[3]
	copy(tag.mem[64:], "PLA-Basic")
	copy(tag.mem[80:], []byte{0, 174, 66, 255})
	for s := 0; s < mifare.Layout1K.Sectors; s++ {
		off := mifare.Layout1K.TrailerBlock(s) * mifare.BlockSize
		copy(tag.mem[off:], tag.keyA[s][:])
		copy(tag.mem[off+6:], []byte{0x87, 0x87, 0x87, 0x69})
	}
	return tag
}

func blankTag(uid []byte) *memTag {
	ks := make(keys.Set, mifare.Layout1K.Sectors)
	for i := range ks {
		ks[i] = mifare.DefaultKey
	}
	return newMemTag(uid, ks)
}

func (m *memTag) Info() mifare.CardInfo { return m.info }

func (m *memTag) Connect() error {
	if m.connected {
		return errors.New("already connected")
	}
	m.connected = true
	return nil
}

func (m *memTag) Disconnect() error {
	m.connected = false
	m.authed = -1
	return nil
}

func (m *memTag) AuthenticateSectorA(sector int, key keys.Key) (bool, error) {
	if !m.connected {
		return false, errors.New("not connected")
	}
	if m.keyA[sector] != key {
		m.authed = -1
		return false, nil
	}
	m.authed = sector
	return true, nil
}

func (m *memTag) ReadBlock(block int) ([]byte, error) {
	sector := m.info.Layout.SectorOf(block)
	if !m.connected || m.authed != sector {
		return nil, &mifare.SWError{Cmd: 0xB0, SW: mifare.SWSecurityNotSatisfied}
	}
	out := make([]byte, mifare.BlockSize)
	copy(out, m.mem[block*mifare.BlockSize:])
	if block == m.info.Layout.TrailerBlock(sector) {
		copy(out[:6], make([]byte, 6))
	}
	return out, nil
}

func (m *memTag) WriteBlock(block int, data []byte) error {
	sector := m.info.Layout.SectorOf(block)
	if !m.connected || m.authed != sector {
		return &mifare.SWError{Cmd: 0xD6, SW: mifare.SWSecurityNotSatisfied}
	}
	copy(m.mem[block*mifare.BlockSize:], data)
	if block == m.info.Layout.TrailerBlock(sector) {
		copy(m.keyA[sector][:], data[:6])
	}
	m.writes++
	return nil
}

// failingBlobs wraps a store and fails every Put of one name.
type failingBlobs struct {
	store.Blobs
	failName string
}

func (f *failingBlobs) Put(name string, data []byte) error {
	if name == f.failName {
		return errors.New("disk full")
	}
	return f.Blobs.Put(name, data)
}

func newLibrary(t *testing.T) (*Library, *store.Dir) {
	t.Helper()
	d, err := store.NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir returned error: %v", err)
	}
	return NewLibrary(d), d
}
