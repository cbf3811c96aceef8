//go:build linux

package serial

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// settings are the logical line parameters baked into a termios.
type settings struct {
	baudRate int
	parity   bool
	stopBits int
	dataBits int
}

func dataBitsMask(dataBits int) (uint32, error) {
	switch dataBits {
	case 5:
		return unix.CS5, nil
	case 6:
		return unix.CS6, nil
	case 7:
		return unix.CS7, nil
	case 8:
		return unix.CS8, nil
	}
	return 0, fmt.Errorf("%w: data bits must be 5, 6, 7 or 8, got %d", ErrInvalidArgument, dataBits)
}

func updateFlag(flag *uint32, mask uint32, set bool) {
	if set {
		*flag |= mask
	} else {
		*flag &^= mask
	}
}

// configureTermios rewrites tty for raw, non-blocking byte transfer with
// the given settings. Every bit it cares about is set or cleared
// explicitly, whatever tty held before.
func configureTermios(tty *unix.Termios, s settings) error {
	size, err := dataBitsMask(s.dataBits)
	if err != nil {
		return err
	}
	code, ok := baudCodes[s.baudRate]
	if !ok {
		return fmt.Errorf("%w: unsupported baud rate %d", ErrInvalidArgument, s.baudRate)
	}

	// Control modes
	updateFlag(&tty.Cflag, unix.PARENB, s.parity)
	updateFlag(&tty.Cflag, unix.CSTOPB, s.stopBits == 2)
	tty.Cflag &^= unix.CSIZE
	tty.Cflag |= size
	tty.Cflag &^= unix.CRTSCTS
	tty.Cflag |= unix.CREAD | unix.CLOCAL

	// Local modes
	tty.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ECHONL | unix.ISIG

	// Input modes
	tty.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY |
		unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL

	// Output modes
	tty.Oflag &^= unix.OPOST | unix.ONLCR | unix.TABDLY

	// Poll-style reads
	tty.Cc[unix.VMIN] = 0
	tty.Cc[unix.VTIME] = 0

	setSpeed(tty, code)
	return nil
}

// setSpeed sets input and output speed the way cfsetispeed/cfsetospeed
// do on Linux. CIBAUD is cleared so the input rate follows the output
// rate.
func setSpeed(tty *unix.Termios, code uint32) {
	tty.Cflag &^= unix.CBAUD | unix.CIBAUD
	tty.Cflag |= code
	tty.Ispeed = code
	tty.Ospeed = code
}
