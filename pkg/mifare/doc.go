/*
Package mifare reads and writes MIFARE Classic cards through PC/SC readers.

It provides:
  - Card geometry for Mini, 1K, 2K and 4K layouts (per-sector block counts)
  - PC/SC storage card pseudo-APDUs (load key, authenticate, read, update)
  - A Session abstraction over one presented card, with a PC/SC implementation
  - ReadCard: authenticated sector-by-sector acquisition of a full image
  - WriteCard: sector-by-sector clone of an image onto a blank card
  - ResetCard: return a cloned card to transport keys and zeroed data
  - FindSectorKeys: find which candidate key set opens each sector
  - Reader selection and card presence watching

# Memory Layout

Memory is addressed in 16-byte blocks grouped into sectors:

	Sectors 0-31:  4 blocks each (blocks 0-127)
	Sectors 32-39: 16 blocks each (blocks 128-255, 4K only)

	Mini: 5 sectors,  320 bytes
	1K:   16 sectors, 1024 bytes
	2K:   32 sectors, 2048 bytes
	4K:   40 sectors, 4096 bytes

Block 0 is the manufacturer block: UID(4) BCC(1) SAK(1) ATQA(2) vendor data(8).
The last block of every sector is the sector trailer:

	Bytes 0-5:   Key A (always reads back as 00 on a genuine card)
	Bytes 6-9:   Access bits
	Bytes 10-15: Key B (or data, depending on access bits)

# Operation: LOAD KEYS (INS 0x82)

	Command:  FF 82 00 <slot> 06 <key(6)>
	Response: SW

Stores a key in the reader's volatile key slot. Slot 0x00 is used for every
authentication.

# Operation: GENERAL AUTHENTICATE (INS 0x86)

	Command:  FF 86 00 00 05 01 <blockMSB> <blockLSB> <keyType> <slot>
	Response: SW

keyType 0x60 = key A, 0x61 = key B. Any block of the sector selects it.
Authentication lasts until another sector is authenticated or the card leaves
the field.

Fail states:

	SW=6300  Key rejected by the card
	SW=6982  Security not satisfied
	SW=6983  Authentication method blocked

A rejected key is not a transport failure: Session.AuthenticateSectorA
reports it as (false, nil).

# Operation: READ BINARY (INS 0xB0)

	Command:  FF B0 <blockMSB> <blockLSB> 10
	Response: <data(16)> | SW

Fail states:

	SW=6982  Sector not authenticated
	SW=6A82  Block outside card memory

# Operation: UPDATE BINARY (INS 0xD6)

	Command:  FF D6 <blockMSB> <blockLSB> 10 <data(16)>
	Response: SW

Writing block 0 only succeeds on UID-changeable cards. Writing a trailer
changes the sector keys immediately.

# Operation: GET DATA (UID)

	Command:  FF CA 00 00 00
	Response: <uid> | SW

# Card Identification

The reader reports storage cards with a PC/SC Part 3 ATR:

	3B 8F 80 01 80 4F 0C A0 00 00 03 06 <SS> <NN NN> 00 00 00 00 <TCK>

	NN NN = 0001  MIFARE Classic 1K
	NN NN = 0002  MIFARE Classic 4K
	NN NN = 0026  MIFARE Mini

# Errors

	*AuthenticationError   card rejected the key for a sector
	*TagTypeMismatchError  family, size, UID length or default key mismatch
	*IOError               transport failure, with operation, sector and block
	*PartialWriteError     write stopped after blocks were written (no rollback)
	*SWError               unexpected status word from the reader

Protocols never retry. A card removed mid-protocol surfaces as an *IOError
from the next call.
*/
package mifare
