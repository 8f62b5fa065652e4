package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ebfe/scard"

	"github.com/barnettlynn/spooltag/internal/cli"
	"github.com/barnettlynn/spooltag/pkg/dump"
	"github.com/barnettlynn/spooltag/pkg/keys"
	"github.com/barnettlynn/spooltag/pkg/mifare"
	"github.com/barnettlynn/spooltag/pkg/spool"
)

// libraryCandidates returns the keys of every stored dump.
func libraryCandidates(lib *spool.Library) ([]mifare.Candidate, error) {
	entries, err := lib.List()
	if err != nil {
		return nil, err
	}
	var out []mifare.Candidate
	for _, e := range entries {
		s, err := lib.Load(e.BaseName)
		if err != nil {
			return nil, err
		}
		ks, err := dump.ExtractKeys(s.Dump)
		if err != nil {
			continue
		}
		out = append(out, mifare.Candidate{Label: e.BaseName, Keys: ks})
	}
	return out, nil
}

func dictionaryCandidate(path string) (mifare.Candidate, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return mifare.Candidate{}, err
	}
	ks, err := keys.ParseDictionary(string(text))
	if err != nil {
		return mifare.Candidate{}, fmt.Errorf("%s: %w", path, err)
	}
	return mifare.Candidate{Label: filepath.Base(path), Keys: ks}, nil
}

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	dicFile := flag.String("dic", "", "extra key dictionary (.dic) to try, one key per sector")
	noLibrary := flag.Bool("no-library", false, "do not try the keys of stored dumps")
	flag.Parse()

	cli.SetupLogging(*verbose, *logFormat)

	fmt.Println("=== MIFARE Classic Key Finder ===")
	fmt.Println()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	secret, err := cfg.Secret()
	if err != nil {
		log.Fatalf("key secret invalid: %v", err)
	}

	var extra []mifare.Candidate
	if *dicFile != "" {
		c, err := dictionaryCandidate(*dicFile)
		if err != nil {
			log.Fatalf("dictionary invalid: %v", err)
		}
		extra = append(extra, c)
	}
	if !*noLibrary {
		lib, err := cli.OpenLibrary(cfg)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fromLib, err := libraryCandidates(lib)
		if err != nil {
			log.Fatalf("load stored dumps failed: %v", err)
		}
		extra = append(extra, fromLib...)
	}

	pc, err := cli.OpenReader(cfg, flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer pc.Close()
	cli.CancelOnSignal(pc)

	var searchErr error
	fmt.Println("Present a card...")
	err = pc.Watch(func() bool {
		sess, err := pc.Identify()
		if err != nil {
			searchErr = err
			return false
		}
		info := sess.Info()
		fmt.Printf("UID: %s (%s)\n\n", info.UIDHex(), info.Layout)

		candidates := []mifare.Candidate{
			{Label: "derived", Keys: secret.Derive(info.UID, info.Layout.Sectors)},
			mifare.Uniform("default", mifare.DefaultKey, info.Layout.Sectors),
		}
		candidates = append(candidates, extra...)

		fmt.Println("Trying keys on each sector...")
		result, err := mifare.FindSectorKeys(sess, candidates)
		if err != nil {
			searchErr = err
			return false
		}

		fmt.Println()
		fmt.Println("Sector | Key A        | Status")
		fmt.Println("-------|--------------|---------------------------")
		unknown := 0
		for _, sk := range result {
			if !sk.Found() {
				unknown++
				fmt.Printf("  %2d   | %-12s | unknown\n", sk.Sector, strings.Repeat("?", 12))
				continue
			}
			fmt.Printf("  %2d   | %s | %s\n", sk.Sector, sk.Key, sk.Label)
		}
		fmt.Println()
		if unknown > 0 {
			fmt.Printf("%d sector(s) rejected every candidate.\n", unknown)
		}
		return false
	})
	if err != nil && !errors.Is(err, scard.ErrCancelled) {
		log.Fatalf("watch failed: %v", err)
	}
	if searchErr != nil {
		log.Fatalf("key search failed: %v", searchErr)
	}
}
