package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/barnettlynn/spooltag/internal/cli"
	"github.com/barnettlynn/spooltag/pkg/color"
	"github.com/barnettlynn/spooltag/pkg/dump"
	"github.com/barnettlynn/spooltag/pkg/keys"
	"github.com/barnettlynn/spooltag/pkg/mifare"
	"github.com/barnettlynn/spooltag/pkg/store"
)

// parseColor accepts a palette name or RRGGBB / RRGGBBAA hex.
func parseColor(s string) ([4]byte, error) {
	if rgb, ok := color.DefaultPalette().Lookup(s); ok {
		return [4]byte{rgb.R, rgb.G, rgb.B, 0xFF}, nil
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil || (len(b) != 3 && len(b) != 4) {
		return [4]byte{}, fmt.Errorf("color must be a palette name or RRGGBB[AA] hex, got %q", s)
	}
	rgba := [4]byte{0, 0, 0, 0xFF}
	copy(rgba[:], b)
	return rgba, nil
}

func main() {
	var (
		uidHex        = flag.String("uid", "", "8-char hex string (4-byte tag UID, required)")
		filamentType  = flag.String("type", "PLA-Basic", "filament type written to block 4")
		colorArg      = flag.String("color", "Bambu Green", "palette color name or RRGGBB[AA] hex")
		fourK         = flag.Bool("4k", false, "synthesize a 4K tag instead of 1K")
		masterKeyFile = flag.String("master-key-file", "", "optional master secret .hex file")
		out           = flag.String("out", "", "write the dump to this file")
		save          = flag.Bool("save", false, "store the artifact set in the configured dump library")
		verify        = flag.Bool("verify", false, "self-verify the generated dump")
		verbose       = flag.Bool("v", false, "Enable debug logging")
		logFormat     = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	cli.SetupLogging(*verbose, *logFormat)

	if *uidHex == "" {
		fmt.Fprintf(os.Stderr, "Error: -uid is required\n")
		flag.Usage()
		os.Exit(1)
	}
	uid, err := hex.DecodeString(*uidHex)
	if err != nil || len(uid) != mifare.ExpectedUIDLength {
		fmt.Fprintf(os.Stderr, "Error: UID must be 8 hex characters (4 bytes), got %q\n", *uidHex)
		os.Exit(1)
	}
	rgba, err := parseColor(*colorArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	slog.Debug("Loading secret", "path", *masterKeyFile)
	secret, err := keys.LoadSecret(*masterKeyFile, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading secret: %v\n", err)
		os.Exit(1)
	}

	tag := dump.Tag{UID: uid, Layout: mifare.Layout1K, Type: *filamentType, RGBA: rgba}
	if *fourK {
		tag.Layout = mifare.Layout4K
	}
	full, err := dump.Synthesize(tag, secret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error synthesizing dump: %v\n", err)
		os.Exit(1)
	}
	a, err := dump.FromDump(full)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building artifacts: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("UID:    %X\n", uid)
	fmt.Printf("Layout: %s\n", tag.Layout)
	fmt.Printf("Type:   %s\n", a.Metadata.Type)
	fmt.Printf("Color:  %s\n", a.Metadata.Color)
	fmt.Printf("Name:   %s\n", a.BaseName)
	fmt.Printf("CID:    %s\n", store.ContentID(a.Dump))

	if *verify {
		slog.Debug("Verifying generated dump")
		derived := secret.Derive(uid, tag.Layout.Sectors).Dictionary()
		if string(a.KeyDictionary) == derived && a.Metadata.Type == *filamentType && a.Metadata.RGBA == rgba {
			fmt.Printf("Verify: OK\n")
		} else {
			fmt.Printf("Verify: FAILED\n")
			os.Exit(1)
		}
	}

	if *out != "" {
		if err := os.WriteFile(*out, a.Dump, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote:  %s\n", *out)
	}

	if *save {
		cfg, err := cli.LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		lib, err := cli.OpenLibrary(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := lib.Save(a); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved:  %s\n", a.BaseName)
	}
}
