package mifare

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ebfe/scard"
)

// Context wraps a PC/SC context and the reader chosen for card I/O.
type Context struct {
	ctx       *scard.Context
	Reader    string
	ReaderIdx int
}

// OpenContext establishes a PC/SC context and picks a reader.
//
// Parameters:
//   - selector: reader index ("0", "1", ...) or a substring of the reader name.
//     Empty selects the first reader.
//
// Returns:
//   - Context with the reader resolved
//   - Error if no reader matches
func OpenContext(selector string) (*Context, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("EstablishContext failed: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		ctx.Release()
		return nil, fmt.Errorf("no readers found: %v", err)
	}

	idx, err := selectReader(readers, selector)
	if err != nil {
		ctx.Release()
		return nil, err
	}
	return &Context{ctx: ctx, Reader: readers[idx], ReaderIdx: idx}, nil
}

func selectReader(readers []string, selector string) (int, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return 0, nil
	}
	if v, err := strconv.Atoi(selector); err == nil {
		if v < 0 || v >= len(readers) {
			return 0, fmt.Errorf("reader index out of range (0..%d)", len(readers)-1)
		}
		return v, nil
	}
	for i, r := range readers {
		if strings.Contains(r, selector) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("reader name not found (%s)", selector)
}

// Close releases the PC/SC context.
func (c *Context) Close() {
	if c == nil || c.ctx == nil {
		return
	}
	_ = c.ctx.Release()
}

// Cancel interrupts a blocked Watch.
func (c *Context) Cancel() error {
	return c.ctx.Cancel()
}

// Watch blocks until a card is presented, calls handle, then waits for the
// card to be removed before reporting the next one. It returns when handle
// returns false or the context is released.
func (c *Context) Watch(handle func() bool) error {
	states := []scard.ReaderState{{
		Reader:       c.Reader,
		CurrentState: scard.StateUnaware,
	}}
	cardPresent := false

	for {
		if err := c.ctx.GetStatusChange(states, time.Second); err != nil {
			if err == scard.ErrTimeout {
				continue
			}
			if err == scard.ErrCancelled || err == scard.ErrInvalidHandle {
				return err
			}
			slog.Warn("GetStatusChange error", "err", err)
			continue
		}

		rs := states[0]
		if (rs.EventState&scard.StatePresent) != 0 && !cardPresent {
			cardPresent = true
			if !handle() {
				return nil
			}
		} else if (rs.EventState&scard.StateEmpty) != 0 && cardPresent {
			cardPresent = false
		}

		states[0].CurrentState = rs.EventState
	}
}

// Identify connects to the presented card once to read its UID and ATR, and
// returns a session bound to that card. That first connection is closed
// before returning; the session opens its own connection on Connect.
func (c *Context) Identify() (*ClassicSession, error) {
	card, err := c.ctx.Connect(c.Reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return nil, fmt.Errorf("connect failed: %w", err)
	}
	defer card.Disconnect(scard.LeaveCard)

	status, err := card.Status()
	if err != nil {
		return nil, fmt.Errorf("card status: %w", err)
	}
	family, layout, err := ParseATR(status.Atr)
	if err != nil {
		return nil, err
	}
	uid, err := GetUID(card)
	if err != nil {
		return nil, err
	}
	info := CardInfo{UID: uid, Family: family, Layout: layout}
	slog.Debug("card identified", "uid", info.UIDHex(), "family", family, "layout", layout)

	connect := func() (Card, error) {
		card, err := c.ctx.Connect(c.Reader, scard.ShareExclusive, scard.ProtocolAny)
		if err != nil {
			return nil, fmt.Errorf("connect failed: %w", err)
		}
		return card, nil
	}
	release := func(card Card) error {
		sc, ok := card.(*scard.Card)
		if !ok {
			return nil
		}
		// Reset drops any authentication state held by the card.
		return sc.Disconnect(scard.ResetCard)
	}
	return NewClassicSession(info, connect, release), nil
}
