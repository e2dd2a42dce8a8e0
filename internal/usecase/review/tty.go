package review

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether the file descriptor is attached to a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsInteractive reports whether stdin is a terminal. False in CI, with piped
// input, or as a background process; used to decide whether the CLI may
// prompt before posting a review.
func IsInteractive() bool {
	return IsTTY(os.Stdin.Fd())
}
