package mifare

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/barnettlynn/spooltag/pkg/keys"
)

// Key types for GENERAL AUTHENTICATE.
const (
	KeyTypeA byte = 0x60
	KeyTypeB byte = 0x61
)

// LoadKey stores a 6-byte key in the reader's volatile key slot (INS 0x82).
func LoadKey(card Card, slot byte, key keys.Key) error {
	apdu := make([]byte, 0, 5+keys.KeySize)
	apdu = append(apdu, 0xFF, 0x82, 0x00, slot, keys.KeySize)
	apdu = append(apdu, key[:]...)
	_, sw, err := Transmit(card, apdu)
	if err != nil {
		return err
	}
	if sw != SWSuccess {
		return &SWError{Cmd: 0x82, SW: sw}
	}
	return nil
}

// Authenticate authenticates the sector holding block with the key in slot
// (GENERAL AUTHENTICATE, INS 0x86). A rejected key is reported as (false, nil).
func Authenticate(card Card, block int, keyType, slot byte) (bool, error) {
	apdu := []byte{0xFF, 0x86, 0x00, 0x00, 0x05,
		0x01, byte(block >> 8), byte(block), keyType, slot}
	_, sw, err := Transmit(card, apdu)
	if err != nil {
		return false, err
	}
	switch {
	case sw == SWSuccess:
		return true, nil
	case sw&0xFF00 == SWWarningNoInfo, sw == SWSecurityNotSatisfied, sw == SWAuthMethodBlocked:
		slog.Debug("authentication rejected", "block", block, "sw", fmt.Sprintf("%04X", sw))
		return false, nil
	default:
		return false, &SWError{Cmd: 0x86, SW: sw}
	}
}

// ReadBlock reads one 16-byte block (READ BINARY, INS 0xB0).
func ReadBlock(card Card, block int) ([]byte, error) {
	apdu := []byte{0xFF, 0xB0, byte(block >> 8), byte(block), BlockSize}
	data, sw, err := Transmit(card, apdu)
	if err != nil {
		return nil, err
	}
	if sw != SWSuccess {
		return nil, &SWError{Cmd: 0xB0, SW: sw}
	}
	if len(data) != BlockSize {
		return nil, fmt.Errorf("read block %d: got %d bytes, want %d", block, len(data), BlockSize)
	}
	return data, nil
}

// WriteBlock writes one 16-byte block (UPDATE BINARY, INS 0xD6).
func WriteBlock(card Card, block int, data []byte) error {
	if len(data) != BlockSize {
		return fmt.Errorf("write block %d: got %d bytes, want %d", block, len(data), BlockSize)
	}
	apdu := make([]byte, 0, 5+BlockSize)
	apdu = append(apdu, 0xFF, 0xD6, byte(block>>8), byte(block), BlockSize)
	apdu = append(apdu, data...)
	_, sw, err := Transmit(card, apdu)
	if err != nil {
		return err
	}
	if sw != SWSuccess {
		return &SWError{Cmd: 0xD6, SW: sw}
	}
	return nil
}

// atrStoragePrefix is the fixed part of a PC/SC Part 3 contactless storage card ATR
// up to and including the RID and standard byte position.
var atrStoragePrefix = []byte{0x3B, 0x8F, 0x80, 0x01, 0x80, 0x4F, 0x0C, 0xA0, 0x00, 0x00, 0x03, 0x06}

// Card names from PC/SC Part 3 supplemental document.
const (
	cardNameClassic1K   = 0x0001
	cardNameClassic4K   = 0x0002
	cardNameClassicMini = 0x0026
)

// ParseATR determines card family and layout from a PC/SC Part 3 storage card ATR.
func ParseATR(atr []byte) (Family, Layout, error) {
	if len(atr) < 15 || !bytes.HasPrefix(atr, atrStoragePrefix) {
		return FamilyUnknown, Layout{}, fmt.Errorf("not a storage card ATR: % X", atr)
	}
	name := uint16(atr[13])<<8 | uint16(atr[14])
	switch name {
	case cardNameClassic1K:
		return FamilyClassic, Layout1K, nil
	case cardNameClassic4K:
		return FamilyClassic, Layout4K, nil
	case cardNameClassicMini:
		return FamilyClassic, LayoutMini, nil
	default:
		return FamilyUnknown, Layout{}, fmt.Errorf("unsupported card name 0x%04X", name)
	}
}

// ClassicSession drives a MIFARE Classic card through a Card that speaks PC/SC
// storage card pseudo-APDUs. It loads each key into reader slot 0 before
// authenticating.
type ClassicSession struct {
	card    Card
	info    CardInfo
	connect func() (Card, error)
	release func(Card) error
}

// NewClassicSession builds a session from open/close callbacks. connect is
// invoked by Connect and must return a live card; release closes it.
func NewClassicSession(info CardInfo, connect func() (Card, error), release func(Card) error) *ClassicSession {
	return &ClassicSession{info: info, connect: connect, release: release}
}

func (s *ClassicSession) Info() CardInfo {
	return s.info
}

func (s *ClassicSession) Connect() error {
	if s.card != nil {
		return fmt.Errorf("already connected")
	}
	card, err := s.connect()
	if err != nil {
		return err
	}
	s.card = card
	return nil
}

func (s *ClassicSession) Disconnect() error {
	if s.card == nil {
		return nil
	}
	card := s.card
	s.card = nil
	if s.release == nil {
		return nil
	}
	return s.release(card)
}

func (s *ClassicSession) AuthenticateSectorA(sector int, key keys.Key) (bool, error) {
	if s.card == nil {
		return false, fmt.Errorf("connection not established")
	}
	if err := LoadKey(s.card, 0x00, key); err != nil {
		return false, err
	}
	return Authenticate(s.card, s.info.Layout.FirstBlock(sector), KeyTypeA, 0x00)
}

func (s *ClassicSession) ReadBlock(block int) ([]byte, error) {
	if s.card == nil {
		return nil, fmt.Errorf("connection not established")
	}
	return ReadBlock(s.card, block)
}

func (s *ClassicSession) WriteBlock(block int, data []byte) error {
	if s.card == nil {
		return fmt.Errorf("connection not established")
	}
	return WriteBlock(s.card, block, data)
}
