package mifare

import (
	"errors"
	"fmt"
)

// Status word constants for PC/SC storage card pseudo-APDUs.
const (
	SWSuccess              = 0x9000 // Success
	SWWarningNoInfo        = 0x6300 // Operation failed (auth rejected, write refused)
	SWWrongLength          = 0x6700 // Wrong length
	SWCommandIncompatible  = 0x6981 // Command incompatible with card
	SWSecurityNotSatisfied = 0x6982 // Security status not satisfied (sector not authenticated)
	SWAuthMethodBlocked    = 0x6983 // Authentication method blocked
	SWKeyNotLoaded         = 0x6986 // Command not allowed (no key loaded in slot)
	SWFunctionUnsupported  = 0x6A81 // Function not supported by reader
	SWAddressOutOfRange    = 0x6A82 // Block address outside card memory
	SWWrongP1P2            = 0x6B00 // Wrong P1/P2
)

// SWError represents a status word error from the reader.
type SWError struct {
	Cmd byte   // Command INS byte
	SW  uint16 // Status word
}

func (e *SWError) Error() string {
	return fmt.Sprintf("card command 0x%02X failed with SW=0x%04X (%s)", e.Cmd, e.SW, swDescription(e.SW))
}

// swDescription returns a human-readable description of a status word.
func swDescription(sw uint16) string {
	switch sw {
	case SWSuccess:
		return "success"
	case SWWarningNoInfo:
		return "operation failed"
	case SWWrongLength:
		return "wrong length"
	case SWCommandIncompatible:
		return "command incompatible"
	case SWSecurityNotSatisfied:
		return "security not satisfied"
	case SWAuthMethodBlocked:
		return "authentication method blocked"
	case SWKeyNotLoaded:
		return "key not loaded"
	case SWFunctionUnsupported:
		return "function not supported"
	case SWAddressOutOfRange:
		return "address out of range"
	case SWWrongP1P2:
		return "wrong P1/P2"
	default:
		return "unknown error"
	}
}

// AuthenticationError reports that the card rejected the key for a sector.
type AuthenticationError struct {
	Sector int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for sector %d", e.Sector)
}

// TagTypeMismatchError reports a card that does not match what the operation expects.
type TagTypeMismatchError struct {
	Field    string // "family", "size", "uid length", "default key"
	Expected string
	Actual   string
	Cause    error
}

func (e *TagTypeMismatchError) Error() string {
	msg := fmt.Sprintf("tag type mismatch: %s expected %s, got %s", e.Field, e.Expected, e.Actual)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TagTypeMismatchError) Unwrap() error {
	return e.Cause
}

// IOError wraps a transport failure. Sector and Block are -1 when not applicable.
type IOError struct {
	Op     string // "connect", "disconnect", "authenticate", "read", "write"
	Sector int
	Block  int
	Err    error
}

func (e *IOError) Error() string {
	switch {
	case e.Block >= 0:
		return fmt.Sprintf("%s sector %d block %d: %v", e.Op, e.Sector, e.Block, e.Err)
	case e.Sector >= 0:
		return fmt.Sprintf("%s sector %d: %v", e.Op, e.Sector, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// PartialWriteError reports a write that stopped after some blocks were
// already written. Written blocks are not rolled back: the card holds a mix
// of old and new content until it is written again.
type PartialWriteError struct {
	Sector        int // sector being processed when the failure happened
	Block         int // absolute block, -1 if the failure was authentication
	BlocksWritten int
	Err           error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write: stopped at sector %d after %d blocks written: %v", e.Sector, e.BlocksWritten, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

func ioErr(op string, sector, block int, err error) error {
	return &IOError{Op: op, Sector: sector, Block: block, Err: err}
}

// IsAuthError checks if an error is a sector authentication failure.
func IsAuthError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsTagTypeMismatch checks if an error reports an unexpected card.
func IsTagTypeMismatch(err error) bool {
	var tmErr *TagTypeMismatchError
	return errors.As(err, &tmErr)
}

// IsPartialWrite checks if an error left a card partially written.
func IsPartialWrite(err error) bool {
	var pwErr *PartialWriteError
	return errors.As(err, &pwErr)
}
