package mifare

import "fmt"

// BlockSize is the size of a MIFARE Classic block.
const BlockSize = 16

const (
	smallSectorBlocks = 4
	largeSectorBlocks = 16
	// Sectors from this index on hold 16 blocks (4K cards only).
	largeSectorStart = 32
)

// Family identifies a card technology.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyClassic
)

func (f Family) String() string {
	switch f {
	case FamilyClassic:
		return "MIFARE Classic"
	default:
		return "unknown"
	}
}

// Layout describes the sector geometry of a MIFARE Classic card.
type Layout struct {
	Sectors int
}

// Known layouts.
var (
	LayoutMini = Layout{Sectors: 5}
	Layout1K   = Layout{Sectors: 16}
	Layout2K   = Layout{Sectors: 32}
	Layout4K   = Layout{Sectors: 40}
)

// BlocksInSector returns 4 for the first 32 sectors and 16 after that.
func (l Layout) BlocksInSector(sector int) int {
	if sector < largeSectorStart {
		return smallSectorBlocks
	}
	return largeSectorBlocks
}

// FirstBlock returns the absolute index of the first block of sector.
func (l Layout) FirstBlock(sector int) int {
	if sector <= largeSectorStart {
		return sector * smallSectorBlocks
	}
	return largeSectorStart*smallSectorBlocks + (sector-largeSectorStart)*largeSectorBlocks
}

// TrailerBlock returns the absolute index of the sector trailer.
func (l Layout) TrailerBlock(sector int) int {
	return l.FirstBlock(sector) + l.BlocksInSector(sector) - 1
}

// Blocks returns the total number of blocks.
func (l Layout) Blocks() int {
	return l.FirstBlock(l.Sectors)
}

// Size returns the memory size in bytes.
func (l Layout) Size() int {
	return l.Blocks() * BlockSize
}

// SectorOf returns the sector holding an absolute block.
func (l Layout) SectorOf(block int) int {
	if block < largeSectorStart*smallSectorBlocks {
		return block / smallSectorBlocks
	}
	return largeSectorStart + (block-largeSectorStart*smallSectorBlocks)/largeSectorBlocks
}

func (l Layout) String() string {
	return fmt.Sprintf("%d sectors / %d bytes", l.Sectors, l.Size())
}

// LayoutForSectors returns the layout of a card reporting sectorCount sectors.
func LayoutForSectors(sectorCount int) (Layout, error) {
	for _, l := range []Layout{LayoutMini, Layout1K, Layout2K, Layout4K} {
		if l.Sectors == sectorCount {
			return l, nil
		}
	}
	return Layout{}, fmt.Errorf("unsupported sector count %d", sectorCount)
}

// LayoutForSize returns the layout whose memory is exactly size bytes.
func LayoutForSize(size int) (Layout, error) {
	for _, l := range []Layout{LayoutMini, Layout1K, Layout2K, Layout4K} {
		if l.Size() == size {
			return l, nil
		}
	}
	return Layout{}, fmt.Errorf("no MIFARE Classic layout is %d bytes", size)
}
