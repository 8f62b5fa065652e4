package dump

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/barnettlynn/spooltag/pkg/keys"
)

// File name suffixes of an artifact set.
const (
	DumpExt       = ".bin"
	DictionaryExt = ".dic"
	RawKeysSuffix = "-key.bin"
	BundleExt     = ".zip"
)

var (
	disallowedChars = regexp.MustCompile(`[^a-zA-Z0-9 -]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// Sanitize drops characters other than ASCII letters, digits, space and dash,
// then replaces runs of whitespace with a single underscore.
func Sanitize(s string) string {
	return whitespaceRuns.ReplaceAllString(disallowedChars.ReplaceAllString(s, ""), "_")
}

// BaseName is the shared name of an artifact set: "<UIDHEX>-<sanitized label>".
func BaseName(uid []byte, md Metadata) string {
	return strings.ToUpper(hex.EncodeToString(uid)) + "-" + Sanitize(md.Label())
}

// DumpFile, DictionaryFile and RawKeysFile name the artifacts of base.
func DumpFile(base string) string       { return base + DumpExt }
func DictionaryFile(base string) string { return base + DictionaryExt }
func RawKeysFile(base string) string    { return base + RawKeysSuffix }
func BundleFile(base string) string     { return base + BundleExt }

// Artifacts are the three co-named blobs produced from one card read.
type Artifacts struct {
	BaseName      string
	Metadata      Metadata
	Dump          []byte
	KeyDictionary []byte
	RawKeys       []byte
}

// Files returns file name and content pairs in a fixed order.
func (a *Artifacts) Files() []File {
	return []File{
		{Name: DumpFile(a.BaseName), Data: a.Dump},
		{Name: DictionaryFile(a.BaseName), Data: a.KeyDictionary},
		{Name: RawKeysFile(a.BaseName), Data: a.RawKeys},
	}
}

// File is a named artifact.
type File struct {
	Name string
	Data []byte
}

// RawKeyBlob concatenates the keys and appends an equal number of zero bytes.
func RawKeyBlob(ks keys.Set) []byte {
	raw := ks.Bytes()
	return append(raw, make([]byte, len(raw))...)
}

// Build produces the artifact set for an image read from the card with uid.
func Build(uid, image []byte, ks keys.Set) (*Artifacts, error) {
	md, err := ParseMetadata(image)
	if err != nil {
		return nil, err
	}
	full, err := EmbedKeys(image, ks)
	if err != nil {
		return nil, err
	}
	return &Artifacts{
		BaseName:      BaseName(uid, md),
		Metadata:      md,
		Dump:          full,
		KeyDictionary: []byte(ks.Dictionary()),
		RawKeys:       RawKeyBlob(ks),
	}, nil
}

// FromDump rebuilds the artifact set of a stored full dump. The UID comes from
// the manufacturer block and the keys from the sector trailers.
func FromDump(full []byte) (*Artifacts, error) {
	uid, err := UID(full)
	if err != nil {
		return nil, err
	}
	ks, err := ExtractKeys(full)
	if err != nil {
		return nil, err
	}
	return Build(uid, full, ks)
}
