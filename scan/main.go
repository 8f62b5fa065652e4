package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/ebfe/scard"

	"github.com/barnettlynn/spooltag/internal/cli"
	"github.com/barnettlynn/spooltag/pkg/keys"
	"github.com/barnettlynn/spooltag/pkg/mifare"
	"github.com/barnettlynn/spooltag/pkg/spool"
	"github.com/barnettlynn/spooltag/pkg/store"
)

func scanCard(pc *mifare.Context, lib *spool.Library, secret keys.Secret) error {
	sess, err := pc.Identify()
	if err != nil {
		return err
	}
	fmt.Printf("UID: %s (%s, %s)\n", sess.Info().UIDHex(), sess.Info().Family, sess.Info().Layout)

	res, err := spool.Scan(sess, secret)
	if err != nil {
		return err
	}
	a := res.Artifacts
	if err := lib.Save(a); err != nil {
		return err
	}

	fmt.Printf("Type:  %s\n", a.Metadata.Type)
	fmt.Printf("Color: %s (RGBA %d,%d,%d,%d)\n", a.Metadata.Color,
		a.Metadata.RGBA[0], a.Metadata.RGBA[1], a.Metadata.RGBA[2], a.Metadata.RGBA[3])
	fmt.Printf("Saved: %s\n", a.BaseName)
	fmt.Printf("CID:   %s\n", store.ContentID(a.Dump))
	return nil
}

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	once := flag.Bool("once", false, "exit after the first card")
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
	lib, err := cli.OpenLibrary(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	pc, err := cli.OpenReader(cfg, flag.Arg(0))
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer pc.Close()
	cli.CancelOnSignal(pc)

	var lastErr error
	fmt.Println("Waiting for spool tags...")
	err = pc.Watch(func() bool {
		lastErr = scanCard(pc, lib, secret)
		if lastErr != nil {
			slog.Error("scan failed", "err", lastErr)
			if mifare.IsAuthError(lastErr) {
				fmt.Println("Card rejected the derived keys; not a spool tag?")
			}
		}
		if *once {
			return false
		}
		fmt.Println("Waiting for next tag...")
		return true
	})
	if err != nil && !errors.Is(err, scard.ErrCancelled) {
		log.Fatalf("watch failed: %v", err)
	}
	if *once && lastErr != nil {
		log.Fatalf("scan failed: %v", lastErr)
	}
}
