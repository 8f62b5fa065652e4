// Package keys derives the per-sector MIFARE Classic keys of spool tags.
//
// Keys are produced by HKDF-SHA256 keyed with the card UID. The 16-byte master
// secret is used as the HKDF salt and a short context string as the info
// parameter. A single expand call yields sectorCount*6 bytes which are sliced
// into consecutive 6-byte keys, one per sector, in sector order.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of a MIFARE Classic sector key.
const KeySize = 6

// Key is a 6-byte sector credential.
type Key [KeySize]byte

// String returns the key as 12 uppercase hex characters.
func (k Key) String() string {
	return strings.ToUpper(hex.EncodeToString(k[:]))
}

// Set holds one key per sector. Index is the sector number.
type Set []Key

// Secret is the keying material shared by every tag of one manufacturer.
type Secret struct {
	Master [16]byte
	Info   []byte
}

var defaultMaster = [16]byte{
	0x9a, 0x75, 0x9c, 0xf2, 0xc4, 0xf7, 0xca, 0xff,
	0x22, 0x2c, 0xb9, 0x76, 0x9b, 0x41, 0xbc, 0x96,
}

// DefaultInfo is the HKDF context used for key A derivation.
const DefaultInfo = "RFID-A\x00"

// DefaultSecret returns the built-in spool tag secret.
// A fresh value is returned on every call so callers cannot mutate it.
func DefaultSecret() Secret {
	return Secret{Master: defaultMaster, Info: []byte(DefaultInfo)}
}

// Derive returns the key set for uid using the built-in secret.
func Derive(uid []byte, sectorCount int) Set {
	return DefaultSecret().Derive(uid, sectorCount)
}

// Derive returns sectorCount keys for uid. The result only depends on the
// secret, uid and sectorCount.
func (s Secret) Derive(uid []byte, sectorCount int) Set {
	if sectorCount <= 0 {
		return Set{}
	}
	out := make([]byte, sectorCount*KeySize)
	r := hkdf.New(sha256.New, uid, s.Master[:], s.Info)
	if _, err := io.ReadFull(r, out); err != nil {
		// hkdf only fails past 255*32 bytes of output, far beyond any card.
		panic(fmt.Sprintf("keys: hkdf expand %d bytes: %v", len(out), err))
	}

	set := make(Set, sectorCount)
	for i := range set {
		copy(set[i][:], out[i*KeySize:(i+1)*KeySize])
	}
	return set
}

// Bytes concatenates the raw keys in sector order.
func (s Set) Bytes() []byte {
	out := make([]byte, 0, len(s)*KeySize)
	for _, k := range s {
		out = append(out, k[:]...)
	}
	return out
}

// Dictionary renders the set as one uppercase hex key per line.
// Every line, including the last, ends with a newline.
func (s Set) Dictionary() string {
	var b strings.Builder
	for _, k := range s {
		b.WriteString(k.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseKey decodes a 12 hex character key.
func ParseKey(text string) (Key, error) {
	var k Key
	text = strings.TrimSpace(text)
	if len(text) != KeySize*2 {
		return k, fmt.Errorf("key must be %d hex chars, got %d", KeySize*2, len(text))
	}
	b, err := hex.DecodeString(text)
	if err != nil {
		return k, fmt.Errorf("invalid hex key: %w", err)
	}
	copy(k[:], b)
	return k, nil
}

// ParseDictionary parses the text written by Set.Dictionary.
// Blank lines are skipped.
func ParseDictionary(text string) (Set, error) {
	var set Set
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, err := ParseKey(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		set = append(set, k)
	}
	return set, nil
}
