package mifare

import "testing"

func TestLayoutSizes(t *testing.T) {
	cases := map[int]Layout{320: LayoutMini, 1024: Layout1K, 2048: Layout2K, 4096: Layout4K}
	for size, l := range cases {
		if l.Size() != size {
			t.Fatalf("%d-sector layout: expected %d bytes, got %d", l.Sectors, size, l.Size())
		}
		got, err := LayoutForSize(size)
		if err != nil || got != l {
			t.Fatalf("LayoutForSize(%d) = %v, %v", size, got, err)
		}
	}
	if _, err := LayoutForSize(1000); err == nil {
		t.Fatalf("expected error for 1000 bytes")
	}
}

func TestLayout1KTrailers(t *testing.T) {
	for s := 0; s < Layout1K.Sectors; s++ {
		if got := Layout1K.TrailerBlock(s); got != s*4+3 {
			t.Fatalf("sector %d trailer = %d, want %d", s, got, s*4+3)
		}
	}
}

func TestLayout4KLargeSectors(t *testing.T) {
	l := Layout4K
	if l.BlocksInSector(31) != 4 || l.BlocksInSector(32) != 16 {
		t.Fatalf("unexpected block counts %d/%d", l.BlocksInSector(31), l.BlocksInSector(32))
	}
	if l.FirstBlock(32) != 128 || l.TrailerBlock(32) != 143 {
		t.Fatalf("sector 32 spans %d..%d", l.FirstBlock(32), l.TrailerBlock(32))
	}
	if l.FirstBlock(39) != 240 || l.TrailerBlock(39) != 255 {
		t.Fatalf("sector 39 spans %d..%d", l.FirstBlock(39), l.TrailerBlock(39))
	}
	if l.Blocks() != 256 {
		t.Fatalf("expected 256 blocks, got %d", l.Blocks())
	}
}

func TestLayoutSectorOf(t *testing.T) {
	cases := map[int]int{0: 0, 3: 0, 4: 1, 127: 31, 128: 32, 143: 32, 144: 33, 255: 39}
	for block, sector := range cases {
		if got := Layout4K.SectorOf(block); got != sector {
			t.Fatalf("SectorOf(%d) = %d, want %d", block, got, sector)
		}
	}
}

func TestLayoutForSectors(t *testing.T) {
	l, err := LayoutForSectors(16)
	if err != nil || l != Layout1K {
		t.Fatalf("LayoutForSectors(16) = %v, %v", l, err)
	}
	if _, err := LayoutForSectors(17); err == nil {
		t.Fatalf("expected error for 17 sectors")
	}
}
