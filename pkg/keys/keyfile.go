package keys

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// LoadMasterHexFile reads the HKDF master secret from a text file. The first
// line that is neither blank nor a # comment must hold exactly 16 bytes as hex.
func LoadMasterHexFile(path string) ([16]byte, error) {
	var master [16]byte

	f, err := os.Open(path)
	if err != nil {
		return master, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) != 2*len(master) {
			return master, fmt.Errorf("master secret must be %d hex chars, got %d", 2*len(master), len(line))
		}
		if _, err := hex.Decode(master[:], []byte(line)); err != nil {
			return master, fmt.Errorf("master secret: %w", err)
		}
		return master, nil
	}
	if err := scanner.Err(); err != nil {
		return master, err
	}
	return master, errors.New("no master secret in file")
}

// LoadSecret builds a Secret from an optional master secret file and an optional
// info override. Empty arguments keep the built-in values.
func LoadSecret(masterPath, info string) (Secret, error) {
	s := DefaultSecret()
	if strings.TrimSpace(masterPath) != "" {
		master, err := LoadMasterHexFile(masterPath)
		if err != nil {
			return Secret{}, fmt.Errorf("load master secret %s: %w", masterPath, err)
		}
		s.Master = master
	}
	if info != "" {
		s.Info = []byte(info)
	}
	return s, nil
}
