//go:build linux

package serial

import (
	"time"

	"golang.org/x/sys/unix"
)

// sys is the file descriptor and termios surface a Line drives.
type sys interface {
	open(path string) (int, error)
	close(fd int) error
	read(fd int, p []byte) (int, error)
	write(fd int, p []byte) (int, error)
	poll(fd int, timeout time.Duration) (pollEvents, error)
	getTermios(fd int) (*unix.Termios, error)
	setTermios(fd int, drain bool, tty *unix.Termios) error
}

// pollEvents is what poll(2) reported for a descriptor.
type pollEvents struct {
	readable bool
	hangup   bool // POLLHUP or POLLERR
}

// pollMillis converts d to a poll(2) timeout, rounding up so a
// sub-millisecond wait does not turn into a zero timeout.
func pollMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}

type unixSys struct{}

func (unixSys) open(path string) (int, error) {
	return unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
}

func (unixSys) close(fd int) error {
	return unix.Close(fd)
}

func (unixSys) read(fd int, p []byte) (int, error) {
	return unix.Read(fd, p)
}

func (unixSys) write(fd int, p []byte) (int, error) {
	return unix.Write(fd, p)
}

func (unixSys) poll(fd int, timeout time.Duration) (pollEvents, error) {
	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	deadline := time.Now().Add(timeout)
	for {
		n, err := unix.Poll(pfd, pollMillis(time.Until(deadline)))
		if err == unix.EINTR {
			continue
		}
		if err != nil || n == 0 {
			return pollEvents{}, err
		}
		return pollEvents{
			readable: pfd[0].Revents&unix.POLLIN != 0,
			hangup:   pfd[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0,
		}, nil
	}
}

func (unixSys) getTermios(fd int) (*unix.Termios, error) {
	return unix.IoctlGetTermios(fd, unix.TCGETS)
}

func (unixSys) setTermios(fd int, drain bool, tty *unix.Termios) error {
	req := uint(unix.TCSETS)
	if drain {
		req = unix.TCSETSW
	}
	return unix.IoctlSetTermios(fd, req, tty)
}
