package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrNotInteractive means a choice needs the menu but stdin is not a terminal.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// StdinIsTerminal reports whether SelectMenu can be shown.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

type menuKey int

const (
	keyNone menuKey = iota
	keyUp
	keyDown
	keyEnter
	keyCancel
)

func decodeKey(buf []byte) menuKey {
	if len(buf) == 1 {
		switch buf[0] {
		case 0x0D, 0x0A:
			return keyEnter
		case 0x03, 'q':
			return keyCancel
		case 'k':
			return keyUp
		case 'j':
			return keyDown
		}
	} else if len(buf) == 3 && buf[0] == 0x1B && buf[1] == '[' {
		switch buf[2] {
		case 'A':
			return keyUp
		case 'B':
			return keyDown
		}
	}
	return keyNone
}

func moveSelection(selected, count int, key menuKey) int {
	switch key {
	case keyUp:
		if selected > 0 {
			return selected - 1
		}
	case keyDown:
		if selected < count-1 {
			return selected + 1
		}
	}
	return selected
}

func renderItems(w io.Writer, items []string, selected int) {
	for i, item := range items {
		// Clear line and return to column 0
		fmt.Fprint(w, "\033[2K\r")
		if i == selected {
			fmt.Fprintf(w, "> %s\r\n", item)
		} else {
			fmt.Fprintf(w, "  %s\r\n", item)
		}
	}
}

// SelectMenu shows items as an arrow-key menu and returns the chosen index,
// or -1 when the user cancels. Without a terminal on stdin nothing is chosen.
func SelectMenu(prompt string, items []string) int {
	if len(items) == 0 {
		return -1
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return -1
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting raw mode: %v\r\n", err)
		return -1
	}
	defer term.Restore(fd, oldState)

	selected := 0
	fmt.Printf("%s\r\n", prompt)
	renderItems(os.Stdout, items, selected)

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return -1
		}
		key := decodeKey(buf[:n])
		switch key {
		case keyEnter:
			fmt.Printf("\r\n")
			return selected
		case keyCancel:
			fmt.Printf("\r\n")
			return -1
		}
		if next := moveSelection(selected, len(items), key); next != selected {
			selected = next
			// Move cursor up to start of menu (skip prompt line)
			fmt.Printf("\033[%dA", len(items))
			renderItems(os.Stdout, items, selected)
		}
	}
}
