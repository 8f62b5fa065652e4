package mifare

import (
	"errors"
	"fmt"

	"github.com/barnettlynn/spooltag/pkg/keys"
)

// fakeTag simulates a MIFARE Classic card behind a Session.
type fakeTag struct {
	info      CardInfo
	mem       []byte
	keyA      keys.Set
	connected bool
	authed    int

	connects    int
	disconnects int
	writes      []int

	failReadBlock  int
	failWriteBlock int
}

func newFakeTag(uid []byte, layout Layout, keyA keys.Set) *fakeTag {
	ks := make(keys.Set, len(keyA))
	copy(ks, keyA)
	return &fakeTag{
		info:           CardInfo{UID: uid, Family: FamilyClassic, Layout: layout},
		mem:            make([]byte, layout.Size()),
		keyA:           ks,
		authed:         -1,
		failReadBlock:  -1,
		failWriteBlock: -1,
	}
}

func blankKeys(n int) keys.Set {
	ks := make(keys.Set, n)
	for i := range ks {
		ks[i] = DefaultKey
	}
	return ks
}

// fill writes a recognizable pattern into every data block.
func (f *fakeTag) fill(seed byte) {
	for i := range f.mem {
		f.mem[i] = seed + byte(i*7)
	}
}

func (f *fakeTag) Info() CardInfo { return f.info }

func (f *fakeTag) Connect() error {
	if f.connected {
		return errors.New("already connected")
	}
	f.connected = true
	f.connects++
	return nil
}

func (f *fakeTag) Disconnect() error {
	f.connected = false
	f.authed = -1
	f.disconnects++
	return nil
}

func (f *fakeTag) AuthenticateSectorA(sector int, key keys.Key) (bool, error) {
	if !f.connected {
		return false, errors.New("not connected")
	}
	if sector >= len(f.keyA) {
		return false, fmt.Errorf("sector %d out of range", sector)
	}
	if f.keyA[sector] != key {
		f.authed = -1
		return false, nil
	}
	f.authed = sector
	return true, nil
}

func (f *fakeTag) ReadBlock(block int) ([]byte, error) {
	if !f.connected {
		return nil, errors.New("not connected")
	}
	if block == f.failReadBlock {
		return nil, &SWError{Cmd: 0xB0, SW: SWWarningNoInfo}
	}
	sector := f.info.Layout.SectorOf(block)
	if f.authed != sector {
		return nil, &SWError{Cmd: 0xB0, SW: SWSecurityNotSatisfied}
	}
	out := make([]byte, BlockSize)
	copy(out, f.mem[block*BlockSize:])
	if block == f.info.Layout.TrailerBlock(sector) {
		// Key A never reads back.
		copy(out[:6], make([]byte, 6))
	}
	return out, nil
}

func (f *fakeTag) WriteBlock(block int, data []byte) error {
	if !f.connected {
		return errors.New("not connected")
	}
	if block == f.failWriteBlock {
		return &SWError{Cmd: 0xD6, SW: SWWarningNoInfo}
	}
	sector := f.info.Layout.SectorOf(block)
	if f.authed != sector {
		return &SWError{Cmd: 0xD6, SW: SWSecurityNotSatisfied}
	}
	copy(f.mem[block*BlockSize:], data)
	if block == f.info.Layout.TrailerBlock(sector) {
		copy(f.keyA[sector][:], data[:6])
	}
	f.writes = append(f.writes, block)
	return nil
}

// fakeCard answers APDUs from a script and records what it was sent.
type fakeCard struct {
	sent      [][]byte
	responses [][]byte
	err       error
}

func (c *fakeCard) Transmit(apdu []byte) ([]byte, error) {
	c.sent = append(c.sent, append([]byte(nil), apdu...))
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return []byte{0x90, 0x00}, nil
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}
