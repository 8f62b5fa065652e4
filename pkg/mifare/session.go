package mifare

import (
	"encoding/hex"
	"strings"

	"github.com/barnettlynn/spooltag/pkg/keys"
)

// CardInfo is the static metadata a session reports for the card it is bound to.
type CardInfo struct {
	UID    []byte
	Family Family
	Layout Layout
}

// Size returns the card memory size in bytes.
func (i CardInfo) Size() int {
	return i.Layout.Size()
}

// UIDHex returns the UID as uppercase hex.
func (i CardInfo) UIDHex() string {
	return strings.ToUpper(hex.EncodeToString(i.UID))
}

// Session is a connection to one presented card. Each call blocks until the
// card answers. Block operations are only valid after the sector holding the
// block was authenticated on the current connection.
type Session interface {
	Info() CardInfo
	Connect() error
	Disconnect() error
	// AuthenticateSectorA returns false, nil when the card rejects the key.
	AuthenticateSectorA(sector int, key keys.Key) (bool, error)
	ReadBlock(block int) ([]byte, error)
	WriteBlock(block int, data []byte) error
}
