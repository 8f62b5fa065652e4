package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/barnettlynn/spooltag/internal/cli"
	"github.com/barnettlynn/spooltag/pkg/dump"
	"github.com/barnettlynn/spooltag/pkg/spool"
	"github.com/barnettlynn/spooltag/pkg/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <command>\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  list                      list stored dumps")
	fmt.Fprintln(os.Stderr, "  show <base>               show metadata of a dump")
	fmt.Fprintln(os.Stderr, "  delete <base>             delete a dump and its key files")
	fmt.Fprintln(os.Stderr, "  export <base> [out.zip]   write a zip bundle")
	fmt.Fprintln(os.Stderr, "  import <file>             import a .bin dump or .zip bundle")
	fmt.Fprintln(os.Stderr, "\nflags:")
	flag.PrintDefaults()
}

func list(lib *spool.Library) error {
	entries, err := lib.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("(no dumps)")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%-48s %5d  %s\n", e.BaseName, e.Size, e.ContentID)
	}
	return nil
}

func show(lib *spool.Library, base string) error {
	s, err := lib.Load(base)
	if err != nil {
		return err
	}
	uid, err := dump.UID(s.Dump)
	if err != nil {
		return err
	}
	layout, err := dump.LayoutOf(s.Dump)
	if err != nil {
		return err
	}
	fmt.Printf("Name:   %s\n", s.BaseName)
	fmt.Printf("UID:    %X\n", uid)
	fmt.Printf("Layout: %s (%d bytes)\n", layout, s.Size)
	fmt.Printf("Type:   %s\n", s.Metadata.Type)
	fmt.Printf("Color:  %s\n", s.Metadata.Color)
	fmt.Printf("RGBA:   %d,%d,%d,%d\n", s.Metadata.RGBA[0], s.Metadata.RGBA[1], s.Metadata.RGBA[2], s.Metadata.RGBA[3])
	swatch := fmt.Sprintf("#%02X%02X%02X", s.Swatch.RGB.R, s.Swatch.RGB.G, s.Swatch.RGB.B)
	if s.Swatch.Fallback {
		swatch += " (fallback)"
	}
	fmt.Printf("Swatch: %s\n", swatch)
	fmt.Printf("CID:    %s\n", s.ContentID)
	return nil
}

func export(lib *spool.Library, base, out string) error {
	if out == "" {
		out = dump.BundleFile(base)
	}
	var buf bytes.Buffer
	if err := lib.Export(&buf, base); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Printf("Exported %s to %s\n", base, out)
	return nil
}

func importFile(lib *spool.Library, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var a *dump.Artifacts
	if strings.EqualFold(filepath.Ext(path), dump.BundleExt) {
		a, err = lib.ImportBundle(data)
	} else {
		a, err = lib.Import(data)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Imported %s\n", a.BaseName)
	return nil
}

func needArg(args []string, n int, what string) {
	if len(args) < n+1 {
		log.Fatalf("%s: missing %s", args[0], what)
	}
}

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	flag.Usage = usage
	flag.Parse()

	cli.SetupLogging(*verbose, *logFormat)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	lib, err := cli.OpenLibrary(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	switch args[0] {
	case "list":
		err = list(lib)
	case "show":
		needArg(args, 1, "dump name")
		err = show(lib, args[1])
	case "delete":
		needArg(args, 1, "dump name")
		if err = lib.Delete(args[1]); err == nil {
			fmt.Printf("Deleted %s\n", args[1])
		}
	case "export":
		needArg(args, 1, "dump name")
		out := ""
		if len(args) > 2 {
			out = args[2]
		}
		err = export(lib, args[1], out)
	case "import":
		needArg(args, 1, "file")
		err = importFile(lib, args[1])
	default:
		usage()
		os.Exit(2)
	}

	switch {
	case err == nil:
	case store.IsNotFound(err):
		log.Fatalf("%s: no such dump", args[0])
	case errors.Is(err, spool.ErrDuplicate):
		log.Fatalf("%s: %v", args[0], err)
	default:
		log.Fatalf("%s failed: %v", args[0], err)
	}
}
