//go:build linux

package serial

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	// ErrInvalidArgument is returned for line parameters that have no
	// sensible fallback, such as a stop bit count other than 1 or 2.
	ErrInvalidArgument = errors.New("serial: invalid argument")

	// ErrPortNotOpen is returned by I/O on a line that is not open.
	ErrPortNotOpen = errors.New("serial: port is not open")
)

// OSError reports a failed termios query or commit on an open device.
type OSError struct {
	Op    string
	Errno unix.Errno
}

func (e *OSError) Error() string {
	return fmt.Sprintf("Error %d: %s", int(e.Errno), e.Errno.Error())
}

func (e *OSError) Unwrap() error { return e.Errno }

// osError converts err into an *OSError. Errors that do not carry an
// errno are reported as EIO, keeping the original message in front.
func osError(op string, err error) error {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return fmt.Errorf("%s: %v: %w", op, err, &OSError{Op: op, Errno: unix.EIO})
	}
	return &OSError{Op: op, Errno: errno}
}
