package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ebfe/scard"

	"github.com/barnettlynn/spooltag/internal/cli"
	"github.com/barnettlynn/spooltag/pkg/mifare"
	"github.com/barnettlynn/spooltag/pkg/spool"
)

// pickDump loads the dump named by base, or lets the user choose one when
// base is empty. Choosing needs a terminal.
func pickDump(lib *spool.Library, base string, interactive bool) (*spool.Stored, error) {
	if base == "" {
		if !interactive {
			return nil, fmt.Errorf("pass -dump <base> to choose a dump: %w", cli.ErrNotInteractive)
		}
		entries, err := lib.List()
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.New("no stored dumps; run scan first")
		}
		items := make([]string, len(entries))
		for i, e := range entries {
			items[i] = e.BaseName
		}
		idx := cli.SelectMenu("Select dump to clone:", items)
		if idx < 0 {
			return nil, errors.New("cancelled")
		}
		base = entries[idx].BaseName
	}
	return lib.Load(base)
}

func reportWriteError(err error) {
	var partial *mifare.PartialWriteError
	var mismatch *mifare.TagTypeMismatchError
	switch {
	case errors.As(err, &partial):
		fmt.Printf("PARTIAL WRITE: %d blocks written before sector %d block %d failed.\n",
			partial.BlocksWritten, partial.Sector, partial.Block)
		fmt.Println("The card is inconsistent; present it again to rewrite.")
	case errors.As(err, &mismatch):
		fmt.Printf("Card cannot take this dump: %s expected %s, got %s.\n",
			mismatch.Field, mismatch.Expected, mismatch.Actual)
	default:
		fmt.Printf("Write failed: %v\n", err)
	}
}

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	dumpBase := flag.String("dump", "", "base name of the stored dump to write (menu when empty, required without a terminal)")
	flag.Parse()

	cli.SetupLogging(*verbose, *logFormat)

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	lib, err := cli.OpenLibrary(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	stored, err := pickDump(lib, *dumpBase, cli.StdinIsTerminal())
	if err != nil {
		log.Fatalf("select dump failed: %v", err)
	}
	fmt.Printf("Dump: %s (%s, %d bytes)\n", stored.BaseName, stored.Metadata.Label(), stored.Size)

	pc, err := cli.OpenReader(cfg, flag.Arg(0))
	if err != nil {
		log.Fatalf("%v", err)
	}
	cli.CancelOnSignal(pc)

	var writeErr error
	fmt.Println("Present a blank card...")
	err = pc.Watch(func() bool {
		sess, err := pc.Identify()
		if err != nil {
			fmt.Printf("Identify failed: %v\n", err)
			fmt.Println("Present a blank card...")
			return true
		}
		fmt.Printf("UID: %s (%s)\n", sess.Info().UIDHex(), sess.Info().Layout)
		writeErr = spool.Clone(sess, stored.Dump)
		return false
	})
	pc.Close()
	if err != nil {
		if errors.Is(err, scard.ErrCancelled) {
			os.Exit(1)
		}
		log.Fatalf("watch failed: %v", err)
	}

	if writeErr != nil {
		reportWriteError(writeErr)
		os.Exit(1)
	}
	fmt.Println("Clone complete.")
}
