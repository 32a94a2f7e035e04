package scene

import (
	"os"

	"github.com/mattn/go-isatty"
)

// CheckTerminal returns ErrNoTerminal unless f is an interactive terminal.
func CheckTerminal(f *os.File) error {
	if f == nil {
		return ErrNoTerminal
	}
	fd := f.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return ErrNoTerminal
}
