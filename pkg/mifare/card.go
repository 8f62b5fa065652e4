package mifare

import "fmt"

// Card is the APDU channel to the reader a Classic card sits on.
// *scard.Card satisfies it.
type Card interface {
	Transmit(apdu []byte) ([]byte, error)
}

// Transmit sends one reader pseudo-APDU and splits the trailing status word
// off the response.
func Transmit(card Card, apdu []byte) ([]byte, uint16, error) {
	resp, err := card.Transmit(apdu)
	if err != nil {
		return nil, 0, err
	}
	if len(resp) < 2 {
		return nil, 0, fmt.Errorf("reader response of %d bytes has no status word", len(resp))
	}
	n := len(resp) - 2
	return resp[:n], uint16(resp[n])<<8 | uint16(resp[n+1]), nil
}

// GetUID reads the anticollision UID with GET DATA (FF CA 00 00). Some readers
// answer Le=00 with 6Cxx, so Le=04 (a single size Classic UID) is tried next.
func GetUID(card Card) ([]byte, error) {
	var lastSW uint16
	var lastErr error
	for _, le := range []byte{0x00, 0x04} {
		data, sw, err := Transmit(card, []byte{0xFF, 0xCA, 0x00, 0x00, le})
		switch {
		case err != nil:
			lastErr = err
		case sw == SWSuccess && len(data) > 0:
			return data, nil
		default:
			lastSW = sw
		}
	}
	if lastSW != 0 {
		return nil, &SWError{Cmd: 0xCA, SW: lastSW}
	}
	return nil, fmt.Errorf("get UID: %w", lastErr)
}
