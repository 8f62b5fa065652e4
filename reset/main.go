package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/ebfe/scard"

	"github.com/barnettlynn/spooltag/internal/cli"
	"github.com/barnettlynn/spooltag/pkg/dump"
	"github.com/barnettlynn/spooltag/pkg/keys"
	"github.com/barnettlynn/spooltag/pkg/mifare"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	dumpBase := flag.String("dump", "", "take the sector keys from this stored dump instead of deriving them from the card UID")
	flag.Parse()

	cli.SetupLogging(*verbose, *logFormat)

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	secret, err := cfg.Secret()
	if err != nil {
		log.Fatalf("key secret invalid: %v", err)
	}

	// A card that cannot rewrite block 0 keeps its own UID but carries the
	// keys of the dump it was cloned from.
	var dumpKeys keys.Set
	if *dumpBase != "" {
		lib, err := cli.OpenLibrary(cfg)
		if err != nil {
			log.Fatalf("%v", err)
		}
		stored, err := lib.Load(*dumpBase)
		if err != nil {
			log.Fatalf("load dump failed: %v", err)
		}
		if dumpKeys, err = dump.ExtractKeys(stored.Dump); err != nil {
			log.Fatalf("dump keys invalid: %v", err)
		}
		fmt.Printf("Keys from: %s\n", stored.BaseName)
	}

	pc, err := cli.OpenReader(cfg, flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer pc.Close()
	cli.CancelOnSignal(pc)

	var resetErr error
	fmt.Println("Present the card to reset...")
	err = pc.Watch(func() bool {
		sess, err := pc.Identify()
		if err != nil {
			resetErr = err
			return false
		}
		info := sess.Info()
		fmt.Printf("Tag UID: %s (%s)\n", info.UIDHex(), info.Layout)

		ks := dumpKeys
		if ks == nil {
			ks = secret.Derive(info.UID, info.Layout.Sectors)
		}
		fmt.Println("Resetting tag to transport keys...")
		resetErr = mifare.ResetCard(sess, ks)
		return false
	})
	if err != nil && !errors.Is(err, scard.ErrCancelled) {
		log.Fatalf("watch failed: %v", err)
	}
	if resetErr != nil {
		var partial *mifare.PartialWriteError
		if errors.As(resetErr, &partial) {
			log.Fatalf("reset stopped after %d blocks; present the card again: %v", partial.BlocksWritten, resetErr)
		}
		log.Fatalf("reset tag failed: %v", resetErr)
	}
	if err == nil {
		fmt.Println("Tag successfully reset to transport state!")
	}
}
