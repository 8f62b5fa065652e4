package mifare

import (
	"bytes"
	"errors"
	"testing"

	"github.com/barnettlynn/spooltag/pkg/keys"
)

func sourceImage(t *testing.T, layout Layout) []byte {
	t.Helper()
	src := newFakeTag(testUID, layout, keys.Derive(testUID, layout.Sectors))
	src.fill(41)
	return append([]byte(nil), src.mem...)
}

func TestWriteCardClonesImage(t *testing.T) {
	image := sourceImage(t, Layout1K)
	tag := newFakeTag([]byte{1, 2, 3, 4}, Layout1K, blankKeys(16))

	if err := WriteCard(tag, image); err != nil {
		t.Fatalf("WriteCard returned error: %v", err)
	}
	if !bytes.Equal(tag.mem, image) {
		t.Fatalf("card memory differs from image")
	}
	if tag.connects != 2 || tag.disconnects != 2 || tag.connected {
		t.Fatalf("expected reconnect after block 0, got %d connects / %d disconnects", tag.connects, tag.disconnects)
	}
	if len(tag.writes) != 1+64 || tag.writes[0] != 0 || tag.writes[1] != 0 {
		t.Fatalf("unexpected write sequence (%d writes) %v", len(tag.writes), tag.writes[:2])
	}
	for i := 1; i < len(tag.writes); i++ {
		if tag.writes[i] != i-1 {
			t.Fatalf("write %d went to block %d, want %d", i, tag.writes[i], i-1)
		}
	}
	// Trailers carry the new keys.
	if tag.keyA[5] == DefaultKey {
		t.Fatalf("sector 5 key was not rewritten")
	}
}

func TestWriteCardRejectsUIDLength(t *testing.T) {
	image := sourceImage(t, Layout1K)
	tag := newFakeTag([]byte{1, 2, 3, 4, 5, 6, 7}, Layout1K, blankKeys(16))

	err := WriteCard(tag, image)
	var tm *TagTypeMismatchError
	if !errors.As(err, &tm) || tm.Field != "uid length" {
		t.Fatalf("expected uid length mismatch, got %v", err)
	}
	if len(tag.writes) != 0 || tag.connects != 0 {
		t.Fatalf("expected no I/O, got %d writes / %d connects", len(tag.writes), tag.connects)
	}
}

func TestWriteCardRejectsSizeMismatch(t *testing.T) {
	image := sourceImage(t, Layout1K)
	tag := newFakeTag(testUID, Layout4K, blankKeys(40))

	err := WriteCard(tag, image)
	var tm *TagTypeMismatchError
	if !errors.As(err, &tm) || tm.Field != "size" {
		t.Fatalf("expected size mismatch, got %v", err)
	}
	if len(tag.writes) != 0 {
		t.Fatalf("expected no writes")
	}
}

func TestWriteCardRejectsFamily(t *testing.T) {
	image := sourceImage(t, Layout1K)
	tag := newFakeTag(testUID, Layout1K, blankKeys(16))
	tag.info.Family = FamilyUnknown

	if err := WriteCard(tag, image); !IsTagTypeMismatch(err) {
		t.Fatalf("expected family mismatch, got %v", err)
	}
}

func TestWriteCardRekeyedTargetIsMismatch(t *testing.T) {
	image := sourceImage(t, Layout1K)
	tag := newFakeTag(testUID, Layout1K, keys.Derive(testUID, 16))

	err := WriteCard(tag, image)
	var tm *TagTypeMismatchError
	if !errors.As(err, &tm) || tm.Field != "default key" {
		t.Fatalf("expected default key mismatch, got %v", err)
	}
	if !IsAuthError(err) {
		t.Fatalf("expected wrapped AuthenticationError, got %v", err)
	}
	if IsPartialWrite(err) || len(tag.writes) != 0 {
		t.Fatalf("expected no writes")
	}
	if tag.connected {
		t.Fatalf("connection left open")
	}
}

func TestWriteCardWriteFailureIsPartial(t *testing.T) {
	image := sourceImage(t, Layout1K)
	tag := newFakeTag(testUID, Layout1K, blankKeys(16))
	tag.failWriteBlock = 9

	err := WriteCard(tag, image)
	var pw *PartialWriteError
	if !errors.As(err, &pw) {
		t.Fatalf("expected PartialWriteError, got %v", err)
	}
	// Block 0 once up front, then blocks 0..8 in the loop.
	if pw.Sector != 2 || pw.Block != 9 || pw.BlocksWritten != 10 {
		t.Fatalf("unexpected partial write %+v", pw)
	}
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "write" {
		t.Fatalf("expected wrapped write IOError, got %v", err)
	}
	if !bytes.Equal(tag.mem[:9*16], image[:9*16]) {
		t.Fatalf("blocks before the failure should stay written")
	}
	if tag.connected {
		t.Fatalf("connection left open")
	}
}

func TestWriteCardAuthFailureMidwayIsPartial(t *testing.T) {
	image := sourceImage(t, Layout1K)
	tag := newFakeTag(testUID, Layout1K, blankKeys(16))
	tag.keyA[5] = keys.Key{1, 2, 3, 4, 5, 6}

	err := WriteCard(tag, image)
	var pw *PartialWriteError
	if !errors.As(err, &pw) || pw.Sector != 5 || pw.Block != -1 {
		t.Fatalf("expected partial write at sector 5, got %v", err)
	}
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) || authErr.Sector != 5 {
		t.Fatalf("expected AuthenticationError for sector 5, got %v", err)
	}
}

func TestWriteCardRefusedBlockZeroIsNotPartial(t *testing.T) {
	image := sourceImage(t, Layout1K)
	tag := newFakeTag(testUID, Layout1K, blankKeys(16))
	tag.failWriteBlock = 0

	err := WriteCard(tag, image)
	var pw *PartialWriteError
	if errors.As(err, &pw) {
		t.Fatalf("nothing was written, got partial write %+v", pw)
	}
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "write" || ioErr.Sector != 0 || ioErr.Block != 0 {
		t.Fatalf("expected write IOError for block 0, got %v", err)
	}
	if len(tag.writes) != 0 {
		t.Fatalf("expected no blocks written, got %v", tag.writes)
	}
}
